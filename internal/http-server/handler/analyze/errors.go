package analyze

const (
	codeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	codeMissingField         = "MISSING_FIELD"
	codeTooManyFiles         = "TOO_MANY_FILES"
	codeInvalidMultipart     = "INVALID_MULTIPART"
	codePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	codeEngineError          = "ENGINE_ERROR"
	codeInternalError        = "INTERNAL_ERROR"
)
