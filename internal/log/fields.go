package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldRecordID    = "record_id"
	FieldRecordName  = "record_name"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldCollection  = "collection"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentIdentity = "identity"
	ComponentStore    = "store"
	ComponentAdapter  = "adapter"
	ComponentStatus   = "status"
	ComponentAMQP     = "amqp"
	ComponentMirror   = "mirror"
)

// Operations defines standard operation names
const (
	OpCreate      = "create"
	OpDelete      = "delete"
	OpBatchDelete = "batch_delete"
	OpList        = "list"
	OpSubscribe   = "subscribe"
	OpSignIn      = "sign_in"
	OpPublish     = "publish"
	OpConsume     = "consume"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)
