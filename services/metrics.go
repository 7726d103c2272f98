package services

import (
	"context"
	"time"

	aws_pkg "marketplace-service/pkg/aws"
)

// recordCount sends a business counter in the background so CloudWatch
// latency never adds to request latency.
func recordCount(m *aws_pkg.MetricsClient, name string, dims map[string]string) {
	if !m.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.RecordCount(ctx, name, dims)
	}()
}
