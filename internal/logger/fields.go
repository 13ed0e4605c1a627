package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing Fields (propagated through context)
// ============================================

const (
	// FieldRequestID is the per-call request ID sent to the query service
	FieldRequestID = "request_id"

	// FieldJobID is the ingestion job ID
	FieldJobID = "job_id"

	// FieldComponent is the component name (bus, poller, notify, ...)
	FieldComponent = "component"

	// FieldEventKind is the bus event kind being dispatched
	FieldEventKind = "event_kind"

	// FieldEndpoint is the remote path being called
	FieldEndpoint = "endpoint"
)

// ============================================
// Metric Fields (Entry level)
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation or HTTP status
	FieldStatus = "status"

	// FieldSize is the response body size in bytes
	FieldSize = "size"
)
