package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequestBody       = "INVALID_REQUEST_BODY"
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeUserAlreadyExists        = "USER_ALREADY_EXISTS"
	CodeUserNotFound             = "USER_NOT_FOUND"
	CodeIncorrectPassword        = "INCORRECT_PASSWORD"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeMissingAuth              = "MISSING_AUTH"
	CodeInvalidToken             = "INVALID_TOKEN"
	CodeInvalidConfirmationToken = "INVALID_CONFIRMATION_TOKEN"
	CodeTooManyRequests          = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable       = "SERVICE_UNAVAILABLE"
	CodeNotFound                 = "NOT_FOUND"
	CodeInternalError            = "INTERNAL_ERROR"
)
