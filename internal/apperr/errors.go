package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for logging and for the per-alert error boundary.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindTimeout        Kind = "TIMEOUT"
	KindConnection     Kind = "CONNECTION"
	KindRateLimit      Kind = "RATE_LIMIT"
	KindNotFound       Kind = "NOT_FOUND"
	KindInfrastructure Kind = "INFRASTRUCTURE"
)

var (
	ErrInvalidTicker    = errors.New("ticker must be exchange-prefixed, e.g. NASDAQ:AAPL")
	ErrInvalidTimeframe = errors.New("unsupported timeframe")
)

// Error carries a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error     { return Wrap(KindValidation, op, err) }
func Timeout(op string, err error) error        { return Wrap(KindTimeout, op, err) }
func Connection(op string, err error) error     { return Wrap(KindConnection, op, err) }
func RateLimit(op string, err error) error      { return Wrap(KindRateLimit, op, err) }
func NotFound(op string, err error) error       { return Wrap(KindNotFound, op, err) }
func Infrastructure(op string, err error) error { return Wrap(KindInfrastructure, op, err) }

// KindOf returns the Kind of the outermost *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
