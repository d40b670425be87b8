package assembler

import (
	"errors"
	"fmt"
)

// ErrorKind groups errors by the stage and nature of the failure.
type ErrorKind int

const (
	// LexError is a bad character, digit or string literal.
	LexError ErrorKind = iota
	// SyntaxError is a statement that matches no production, or a pseudo-instruction arity mismatch.
	SyntaxError
	// SemanticError is a well-formed statement that cannot be assembled.
	SemanticError
	// InternalError means a stage received input an earlier stage should have removed.
	InternalError
	// ConfigError is a defect in the instruction set or pseudo-instruction tables.
	ConfigError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case SyntaxError:
		return "syntax error"
	case SemanticError:
		return "semantic error"
	case InternalError:
		return "internal error"
	case ConfigError:
		return "config error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the single error type returned by every assembler stage.
type Error struct {
	Kind ErrorKind
	Pos  Position
	Msg  string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

func errorf(kind ErrorKind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind of an assembler error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
