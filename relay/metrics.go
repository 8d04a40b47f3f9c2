package relay

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/relay-bricks/observability"
)

const (
	meterName = "github.com/gaborage/relay-bricks/relay"

	metricRequests         = "relay.requests"
	metricUpstreamDuration = "relay.upstream.duration"

	attrCode   = "code"
	attrStatus = "http.response.status_code"
)

type relayMetrics struct {
	requests         metric.Int64Counter
	upstreamDuration metric.Float64Histogram
}

func newRelayMetrics(mp metric.MeterProvider) (*relayMetrics, error) {
	meter := mp.Meter(meterName)

	requests, err := observability.CreateCounter(meter, metricRequests,
		"Relay requests by response code")
	if err != nil {
		return nil, err
	}

	duration, err := observability.CreateHistogram(meter, metricUpstreamDuration,
		"Duration of upstream chat-completion calls",
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &relayMetrics{requests: requests, upstreamDuration: duration}, nil
}
