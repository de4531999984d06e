package common

type ErrorResponse struct {
	Message string `json:"message"`
	// RunID is set when a sync started before failing.
	RunID string `json:"runId,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}
