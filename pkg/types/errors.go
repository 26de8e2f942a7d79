package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so the CLI can choose an exit code
// and callers can decide whether to retry.
type ErrorKind string

const (
	// KindConfig marks a malformed rarity table, rule set, or asset tree.
	// Fatal; nothing is sampled.
	KindConfig ErrorKind = "config"
	// KindCapacity marks a request for more unique records than the
	// remaining combinatorial space (or the retry ceiling) allows.
	KindCapacity ErrorKind = "capacity"
	// KindState marks an on-disk edition or partition in a state the
	// requested operation cannot start from.
	KindState ErrorKind = "state"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrConfig   = errors.New("config error")
	ErrCapacity = errors.New("capacity error")
	ErrState    = errors.New("state error")
)

var kindSentinels = map[ErrorKind]error{
	KindConfig:   ErrConfig,
	KindCapacity: ErrCapacity,
	KindState:    ErrState,
}

// Error wraps an underlying failure with the operation and kind.
type Error struct {
	Op   string
	Kind ErrorKind
	Path string // optional
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// ConfigErrorf builds a KindConfig error.
func ConfigErrorf(op, format string, args ...any) error {
	return &Error{Op: op, Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// CapacityErrorf builds a KindCapacity error.
func CapacityErrorf(op, format string, args ...any) error {
	return &Error{Op: op, Kind: KindCapacity, Err: fmt.Errorf(format, args...)}
}

// StateErrorf builds a KindState error.
func StateErrorf(op, format string, args ...any) error {
	return &Error{Op: op, Kind: KindState, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
