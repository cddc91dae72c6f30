package requestcontext

// Shared Locals keys used across handlers and middlewares
const (
	KeyRequestContext = "REQUEST_CONTEXT"
	KeyRequestID      = "request_id"
	KeyAccount        = "account"
)
