package common

// SuccessResponse is the envelope of every successful JSON reply.
type SuccessResponse struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope of every failed JSON reply. Data is omitted
// unless there is something for the client to act on.
type ErrorResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(status int, data interface{}, message string) SuccessResponse {
	return SuccessResponse{Status: status, Success: true, Message: message, Data: data}
}

func NewErrorResponse(status int, message string) ErrorResponse {
	return ErrorResponse{Status: status, Message: message}
}
