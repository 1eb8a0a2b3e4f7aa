package observability

import "go.opentelemetry.io/otel"

// Tracer is a no-op until the process installs a TracerProvider.
var Tracer = otel.Tracer("grammarsym")
