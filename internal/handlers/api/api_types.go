package api

// Google JSON API style response structures
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type APIResponse struct {
	APIVersion string         `json:"apiVersion"`
	Data       interface{}    `json:"data,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

func NewDataResponse(data interface{}) APIResponse {
	return APIResponse{
		APIVersion: "1.0",
		Data:       data,
	}
}

func NewErrorResponse(code int, message string) APIResponse {
	return APIResponse{
		APIVersion: "1.0",
		Error: &ErrorResponse{
			Code:    code,
			Message: message,
		},
	}
}
