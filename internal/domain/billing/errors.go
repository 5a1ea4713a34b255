package billing

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindSignature
	KindNotFound
	KindProvider
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSignature:
		return "signature"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// Error carries a Kind so the HTTP layer can pick a status without string matching.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(op, msg string) error { return &Error{Kind: KindValidation, Op: op, Msg: msg} }
func NotFound(op, msg string) error   { return &Error{Kind: KindNotFound, Op: op, Msg: msg} }
func Signature(op string, err error) error {
	return &Error{Kind: KindSignature, Op: op, Msg: "invalid signature", Err: err}
}
func Provider(op string, err error) error { return &Error{Kind: KindProvider, Op: op, Err: err} }
func Config(op, msg string) error         { return &Error{Kind: KindConfig, Op: op, Msg: msg} }

// KindOf returns KindInternal for errors that carry no Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message is the text shown to API callers: the provider message for
// provider errors, the bare message otherwise.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}
