package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindAuth              ErrorKind = "AUTH_ERROR"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindEmptyCart         ErrorKind = "EMPTY_CART"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindUpstream          ErrorKind = "UPSTREAM_ERROR"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// errors.Is で種類だけを比較するための番兵
var (
	ErrAuth              = &HTTPError{Status: http.StatusUnauthorized, Kind: KindAuth}
	ErrForbidden         = &HTTPError{Status: http.StatusForbidden, Kind: KindForbidden}
	ErrNotFound          = &HTTPError{Status: http.StatusNotFound, Kind: KindNotFound}
	ErrValidation        = &HTTPError{Status: http.StatusBadRequest, Kind: KindValidation}
	ErrEmptyCart         = &HTTPError{Status: http.StatusBadRequest, Kind: KindEmptyCart}
	ErrInsufficientStock = &HTTPError{Status: http.StatusConflict, Kind: KindInsufficientStock}
	ErrInvalidState      = &HTTPError{Status: http.StatusConflict, Kind: KindInvalidState}
	ErrUpstream          = &HTTPError{Status: http.StatusBadGateway, Kind: KindUpstream}
	ErrInternal          = &HTTPError{Status: http.StatusInternalServerError, Kind: KindInternal}
)

// HandlerはStatusとMessageをそのまま返す
type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	return ok && t.Kind == e.Kind
}

// ステータスから種類を決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    KindForStatus(status),
		Message: message,
	}
}

func newError(kind ErrorKind, status int, message string) *HTTPError {
	return &HTTPError{Status: status, Kind: kind, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errUnauthorized() error {
	return newError(KindAuth, http.StatusUnauthorized, "Unauthorized")
}

func errValidation(message string) error {
	return newError(KindValidation, http.StatusBadRequest, message)
}

func errInternal(err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error", Err: err}
}

func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindInvalidState
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindUpstream
	}
	switch {
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindInternal
	default:
		return KindUpstream
	}
}

// 上流サービスのエラーが持つHTTPステータス
type upstreamStatus interface {
	HTTPStatus() int
	UpstreamMessage() string
}

// 上流のエラーを分類する。ステータスが無ければ502。
func fromUpstream(err error, fallback string) error {
	if he, ok := AsHTTPError(err); ok {
		return he
	}

	var us upstreamStatus
	if errors.As(err, &us) {
		msg := us.UpstreamMessage()
		if msg == "" {
			msg = fallback
		}
		status := us.HTTPStatus()
		switch status {
		case http.StatusNotFound:
			return &HTTPError{Status: status, Kind: KindNotFound, Message: msg, Err: err}
		case http.StatusUnauthorized:
			return &HTTPError{Status: status, Kind: KindAuth, Message: msg, Err: err}
		case http.StatusForbidden:
			return &HTTPError{Status: status, Kind: KindForbidden, Message: msg, Err: err}
		}
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return &HTTPError{Status: status, Kind: KindUpstream, Message: msg, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &HTTPError{Status: http.StatusBadGateway, Kind: KindUpstream, Message: "request cancelled", Err: err}
	}
	return &HTTPError{Status: http.StatusBadGateway, Kind: KindUpstream, Message: fallback, Err: err}
}
