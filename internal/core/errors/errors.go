package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidSampleError   = "invalid_sample"
	HttpDuplicateSampleError = "duplicate_sample"
	HttpUnknownMetricError   = "unknown_metric"
	HttpUnknownRuleError     = "unknown_rule"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
