package layout

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates the ways a module tree cannot be laid out.
type ErrorKind uint8

const (
	// ErrDuplicateModule: two sources map to the same module path.
	ErrDuplicateModule ErrorKind = iota + 1
	// ErrBadPattern: a feature gate pattern does not compile.
	ErrBadPattern
	// ErrHandWrittenClash: a hand-written module has the name of a generated one.
	ErrHandWrittenClash
)

// Error describes a layout failure.
type Error struct {
	Kind   ErrorKind
	Module []string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	mod := strings.Join(e.Module, "::")
	switch e.Kind {
	case ErrDuplicateModule:
		return fmt.Sprintf("module %s is produced by more than one source (%s)", mod, e.Detail)
	case ErrBadPattern:
		return fmt.Sprintf("invalid feature gate pattern %q: %v", e.Detail, e.Err)
	case ErrHandWrittenClash:
		return fmt.Sprintf("hand-written module %s clashes with a generated module", mod)
	default:
		return "layout error"
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
