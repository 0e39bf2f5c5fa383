package models

type ApiResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func TokenResponse(accessToken string, data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success:     true,
		Data:        data,
		Message:     message,
		AccessToken: accessToken,
	}
}

func ErrorResponse(message, detail string) ApiResponse {
	return ApiResponse{
		Success: false,
		Message: message,
		Error:   detail,
	}
}
