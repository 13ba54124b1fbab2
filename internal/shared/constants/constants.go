package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderCookie        = "Cookie"
	HeaderXRequestID    = "X-Request-ID"

	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeySessionID = "session_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyUserEmail = "user_email"

	// Database table names
	TableUsers           = "users"
	TableRolePermissions = "role_permissions"

	// Redis key prefixes
	RedisKeySession      = "session:"
	RedisKeyUserSessions = "user_sessions:"
	RedisKeyLoginLimit   = "ratelimit:login:"
)
