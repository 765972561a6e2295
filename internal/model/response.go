package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// SuccessResponse is returned by operations that have nothing else to report,
// such as DDL statements.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SQL     string `json:"sql,omitempty"`
}
