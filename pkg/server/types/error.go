package types

// ErrorResponse is the JSON error envelope returned by every API and
// admin endpoint.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "authentication_error",
	// "permission_denied", "not_found", "server_error", "gateway_timeout".
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeAuthentication indicates an authentication failure (401).
	ErrorTypeAuthentication = "authentication_error"

	// ErrorTypePermissionDenied indicates an authorization failure (403).
	ErrorTypePermissionDenied = "permission_denied"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeGatewayTimeout indicates a request timeout (504).
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error code constants for common error scenarios.
const (
	// CodeMissingParam indicates a required query parameter is missing.
	CodeMissingParam = "missing_param"

	// CodeInvalidValue indicates a parameter has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeMissingAPIKey indicates no API key was provided.
	CodeMissingAPIKey = "missing_api_key"

	// CodeInvalidAPIKey indicates the API key is unknown or disabled.
	CodeInvalidAPIKey = "invalid_api_key"

	// CodeInsufficientRole indicates the key's role does not permit the operation.
	CodeInsufficientRole = "insufficient_role"

	// CodeEnvironmentUnresolvable indicates the detected environment has no identity row.
	CodeEnvironmentUnresolvable = "environment_unresolvable"

	// CodeStoreUnavailable indicates the configuration store failed.
	CodeStoreUnavailable = "store_unavailable"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"

	// CodeRequestTimeout indicates the request took too long to complete.
	CodeRequestTimeout = "request_timeout"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewAuthenticationError creates an error response for authentication failures (401).
func NewAuthenticationError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeAuthentication, "", code)
}

// NewPermissionDeniedError creates an error response for authorization failures (403).
func NewPermissionDeniedError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypePermissionDenied, "", CodeInsufficientRole)
}

// NewNotFoundError creates an error response for missing resources (404).
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "", "")
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewGatewayTimeoutError creates an error response for request timeouts (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, "", CodeRequestTimeout)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypePermissionDenied:
		return 403
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeGatewayTimeout:
		return 504
	default:
		return 500
	}
}
