package sink

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/telemetry-bridge/internal/sink"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
