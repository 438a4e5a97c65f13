package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Error codes used across the relay. HTTP surfaces map them onto status
// codes; everything else only cares about identity via Is.
const (
	CodeAuthFailure     = 1101
	CodeNotRegistered   = 1102
	CodeTargetNotFound  = 1103
	CodeDeliveryFailure = 1104
	CodeInternal        = 1500
)

var (
	ErrAuthFailure     = NewCodeError(CodeAuthFailure, "authentication failed")
	ErrNotRegistered   = NewCodeError(CodeNotRegistered, "connection not registered")
	ErrTargetNotFound  = NewCodeError(CodeTargetNotFound, "target not found")
	ErrDeliveryFailure = NewCodeError(CodeDeliveryFailure, "delivery failed")
	ErrInternal        = NewCodeError(CodeInternal, "internal error")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// WithDetail returns a copy carrying extra context. The receiver is shared
// (the sentinels above), so it is never mutated in place.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// Is matches any CodeError with the same code, so
// errors.Is(err, ErrAuthFailure) works across WithDetail copies and wraps.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// Code extracts the relay error code from err, or CodeInternal when err is
// not a CodeError.
func Code(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}
