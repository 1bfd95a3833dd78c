package contextkey

// key is a private type to avoid context key collisions across packages.
type key string

// Keys carried through request contexts and picked up by the logger.
const (
	TraceID key = "trace_id"
	UserID  key = "user_id"
)
