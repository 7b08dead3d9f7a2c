package models

// ValidationIssue points at a single invalid field.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationIssue `json:"details,omitempty"`
}
