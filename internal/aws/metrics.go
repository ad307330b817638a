package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits count metrics into a single CloudWatch namespace.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics emitter for namespace.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: client,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// Count records value occurrences of name with the given dimensions.
// Empty dimension values are skipped.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) error {
	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for k, v := range dimensions {
		if v == "" {
			continue
		}
		dims = append(dims, cwtypes.Dimension{Name: awsString(k), Value: awsString(v)})
	}
	ts := m.nowFunc()
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Dimensions: dims,
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      &value,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
