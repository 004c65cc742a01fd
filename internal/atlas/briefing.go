package atlas

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/SourceM7/syrianzone/internal/climate"
)

// Briefing renders the report as Markdown for the HTML briefing page.
func Briefing(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s climate briefing\n\n", r.Metadata.Country)
	fmt.Fprintf(&b, "_Report date: %s. Sources: %s._\n\n", r.Metadata.ReportDate, strings.Join(r.Metadata.DataSources, ", "))

	b.WriteString("## Key findings\n\n")
	for _, f := range r.Summary.KeyFindings {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	if len(r.Cities) > 0 {
		b.WriteString("\n## Cities\n\n")
		b.WriteString("| City | Temperature | Drought risk | Annual precipitation | Air quality |\n")
		b.WriteString("|---|---|---|---|---|\n")

		names := make([]string, 0, len(r.Cities))
		for name := range r.Cities {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			c := r.Cities[name]
			var cc climate.CurrentConditions
			var dr climate.DroughtRisk
			var aq climate.AirQuality
			// Undecodable fields leave zero values and render as n/a.
			_ = json.Unmarshal(c.CurrentConditions, &cc)
			_ = json.Unmarshal(c.DroughtRisk, &dr)
			_ = json.Unmarshal(c.AirQuality, &aq)

			temp := "n/a"
			if cc.TemperatureCelsius != nil {
				temp = fmt.Sprintf("%.1f °C", *cc.TemperatureCelsius)
			}
			risk, precip := "n/a", "n/a"
			if dr.DroughtRisk != "" {
				risk = dr.DroughtRisk
				precip = fmt.Sprintf("%.0f mm", dr.AnnualPrecipitationMM)
			}
			air := "n/a"
			if aq.Category != "" {
				air = aq.Category
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", name, temp, risk, precip, air)
		}
	}

	ctx := r.CountryLevel.ClimateContext
	fmt.Fprintf(&b, "\n## Country context\n\n%s.\n\n", ctx.Classification)
	for _, c := range ctx.MainClimateChallenges {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\n## Recommendations\n\n")
	for i, rec := range r.Summary.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	return b.String()
}
