package domain

// EventKind identifies a bus message type.
type EventKind string

const (
	// EventSchemaReady carries *Schema after a data source connects.
	EventSchemaReady EventKind = "schema-ready"
	// EventAliasVocabulary carries []string alias tokens.
	EventAliasVocabulary EventKind = "alias-vocabulary"
	// EventDocumentsComplete carries DocumentsComplete.
	EventDocumentsComplete EventKind = "documents-complete"
	// EventQueryResults carries *ResultPayload.
	EventQueryResults EventKind = "query-results"
	// EventNotify carries Notice.
	EventNotify EventKind = "notify"
)

// Event is a bus message. Payloads are shared between subscribers and
// must be treated as read-only.
type Event struct {
	Kind    EventKind
	Payload any
}

// DocumentsComplete is published once per job when ingestion finishes.
type DocumentsComplete struct {
	JobID string
	Done  int
	Total int
}
