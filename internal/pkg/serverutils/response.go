package serverutils

// ApiResponse is the envelope every endpoint returns.
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	// Hint carries advisory diagnostics (upstream status guidance).
	Hint string `json:"hint,omitempty"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) ApiResponse[any] {
	return ApiResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

func ErrorResponseWithHint(code int, message, hint string) ApiResponse[any] {
	resp := ErrorResponse(code, message)
	resp.Hint = hint
	return resp
}
