package contact

const (
	codeInvalidContact     = "INVALID_CONTACT"
	codePersistenceError   = "PERSISTENCE_ERROR"
	codeAdminNotConfigured = "ADMIN_NOT_CONFIGURED"
	codeBadRequest         = "BAD_REQUEST"
	codeUnauthorized       = "UNAUTHORIZED"
	codeInternalError      = "INTERNAL_ERROR"
)

const msgExpectedJSON = "Expected JSON body"
