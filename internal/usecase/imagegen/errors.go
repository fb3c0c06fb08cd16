package imagegen

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfigMissing
	KindValidation
	KindProvider
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindValidation:
		return "validation_failed"
	case KindProvider:
		return "provider_error"
	default:
		return "unknown"
	}
}

// UserFixable reports whether the user can resolve the failure by changing input or config.
func (k ErrorKind) UserFixable() bool {
	return k == KindConfigMissing || k == KindValidation
}

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func configMissing() *Error {
	return &Error{Kind: KindConfigMissing, Message: msgConfigMissing}
}

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func providerError(err error) *Error {
	return &Error{Kind: KindProvider, Message: msgGenerationFailed, Err: err}
}
