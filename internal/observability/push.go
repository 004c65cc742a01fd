package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJobName is the Pushgateway job label used by update-climate.
const PushJobName = "atlas_update_climate"

// Push sends the enrichment collectors to a Prometheus Pushgateway. The
// hourly job is short-lived, so scraping it directly would miss most runs.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	p := push.New(gatewayURL, PushJobName)
	for _, c := range m.collectors() {
		p = p.Collector(c)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
