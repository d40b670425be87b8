package assembler

import (
	"fmt"
	"strconv"

	"github.com/Urethramancer/zirc/isa"
)

// Kind classifies a lexical unit.
type Kind int

const (
	// Identifier is a mnemonic or label name.
	Identifier Kind = iota
	// Register is a name from the register table, lower-cased.
	Register
	// Condition is a name from the condition table, lower-cased.
	Condition
	// SpecialRegister is a name from the special register table, lower-cased.
	SpecialRegister
	// Punctuation is a single ',' or ':'.
	Punctuation
	// Number holds the digits of a literal without its radix prefix.
	Number
	// String holds the unescaped contents of a quoted literal.
	String
	// LineBreak ends a statement.
	LineBreak
)

var kindNames = map[Kind]string{
	Identifier:      "identifier",
	Register:        "register",
	Condition:       "condition",
	SpecialRegister: "special register",
	Punctuation:     "punctuation",
	Number:          "number",
	String:          "string",
	LineBreak:       "line break",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// kindOfClass maps an instruction set value class to the unit kind the lexer produces for it.
func kindOfClass(c isa.Class) Kind {
	switch c {
	case isa.Condition:
		return Condition
	case isa.Special:
		return SpecialRegister
	default:
		return Register
	}
}

// Position of a unit in its source file. Rows and columns start at 1.
type Position struct {
	File string
	Row  int
	Col  int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Row, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Row, p.Col)
}

// IsValid reports whether the position points into a source.
func (p Position) IsValid() bool {
	return p.Row > 0
}

// Unit is one positioned lexical unit.
type Unit struct {
	Text  string
	Kind  Kind
	Radix int
	Pos   Position
	// Fields are bit-field selections still to be applied to the value of an
	// Identifier once it resolves to an address, innermost first.
	Fields []isa.BitField
}

func (u Unit) String() string {
	switch u.Kind {
	case Number:
		switch u.Radix {
		case 16:
			return "0x" + u.Text
		case 2:
			return "0b" + u.Text
		}
	case String:
		return strconv.Quote(u.Text)
	case LineBreak:
		return `\n`
	}
	return u.Text
}

// Value parses the digits of a Number unit in its radix.
func (u Unit) Value() (uint64, error) {
	if u.Kind != Number {
		return 0, fmt.Errorf("%s %q is not a number", u.Kind, u.Text)
	}
	return strconv.ParseUint(u.Text, u.Radix, 64)
}

// numberUnit makes a base-10 Number unit at pos.
func numberUnit(v uint64, pos Position) Unit {
	return Unit{Text: strconv.FormatUint(v, 10), Kind: Number, Radix: 10, Pos: pos}
}

func applyFields(v uint64, fields []isa.BitField) uint64 {
	for _, f := range fields {
		v = f.Apply(v)
	}
	return v
}
