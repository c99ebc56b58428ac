package upstream

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// StatusError は上流が返したエラー応答
type StatusError struct {
	Service string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.Status, e.Message)
}

func (e *StatusError) HTTPStatus() int {
	return e.Status
}

func (e *StatusError) UpstreamMessage() string {
	return e.Message
}

// 上流のエラー本文 {"message": "..."}
type errorBody struct {
	Message string `json:"message"`
}

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// 4xx/5xx を StatusError にする
func checkResponse(service string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := ""
	if eb, ok := resp.Error().(*errorBody); ok && eb != nil {
		msg = eb.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &StatusError{Service: service, Status: resp.StatusCode(), Message: msg}
}
