package middleware

import "ecorder/internal/usecase"

var (
	codeAuth      = string(usecase.KindAuth)
	codeForbidden = string(usecase.KindForbidden)
	codeUpstream  = string(usecase.KindUpstream)
)

// handler の writeError と同じ形
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func errorJSON(msg string, code string) errorResponse {
	return errorResponse{Message: msg, Code: code}
}
