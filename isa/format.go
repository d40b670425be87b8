package isa

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// PartKind tells the parts of a format apart.
type PartKind int

const (
	// PartConst is a run of literal bits.
	PartConst PartKind = iota
	// PartTyped consumes a register, condition or special register operand.
	PartTyped
	// PartImmediate consumes a numeric operand.
	PartImmediate
	// PartExtra consumes an optional numeric operand, zero when absent.
	PartExtra
)

// Part is one field of an instruction format, most significant first.
type Part struct {
	Kind  PartKind
	Class Class
	Width uint
	Bits  uint64
}

func (p Part) String() string {
	switch p.Kind {
	case PartConst:
		return fmt.Sprintf("%0*b", int(p.Width), p.Bits)
	case PartTyped:
		return fmt.Sprintf("{%c%d}", classLetter[p.Class], p.Width)
	case PartImmediate:
		return fmt.Sprintf("{IMM%d}", p.Width)
	default:
		return fmt.Sprintf("{E%d}", p.Width)
	}
}

// Format is the ordered bit layout of one mnemonic.
type Format []Part

var classLetter = map[Class]byte{
	Register:  'R',
	Condition: 'C',
	Special:   'S',
}

// Width is the total number of bits in the format.
func (f Format) Width() uint {
	return lo.SumBy(f, func(p Part) uint { return p.Width })
}

// Operands counts the parts that consume an operand.
func (f Format) Operands() int {
	return lo.CountBy(f, func(p Part) bool { return p.Kind != PartConst })
}

// Pattern returns the mask and value of the constant bits, aligned to the format width.
func (f Format) Pattern() (mask, bits uint64) {
	off := f.Width()
	for _, p := range f {
		off -= p.Width
		if p.Kind == PartConst {
			mask |= lowMask(p.Width) << off
			bits |= p.Bits << off
		}
	}
	return mask, bits
}

// Fields splits a word into one value per operand part, in format order.
func (f Format) Fields(word uint64) []uint64 {
	var out []uint64
	off := f.Width()
	for _, p := range f {
		off -= p.Width
		if p.Kind != PartConst {
			out = append(out, (word>>off)&lowMask(p.Width))
		}
	}
	return out
}

func (f Format) String() string {
	return strings.Join(lo.Map(f, func(p Part, _ int) string { return p.String() }), " ")
}

// Match reports whether the constant bits of f are present in word.
func Match(f Format, word uint64) bool {
	mask, bits := f.Pattern()
	return word&mask == bits
}

// ParseFormat turns a format string such as "00001 {R4} {R4} 00{E1}" into parts.
// Runs of 0 and 1 become constant parts; whitespace only ends a run.
func ParseFormat(s string) (Format, error) {
	var f Format
	var run *Part
	flush := func() {
		if run != nil {
			f = append(f, *run)
			run = nil
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '0' || c == '1':
			if run == nil {
				run = &Part{Kind: PartConst}
			}
			if run.Width == 64 {
				return nil, fmt.Errorf("constant run longer than 64 bits in %q", s)
			}
			run.Bits = run.Bits<<1 | uint64(c-'0')
			run.Width++
		case unicode.IsSpace(rune(c)):
			flush()
		case c == '{':
			flush()
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated slot at offset %d in %q", i, s)
			}
			p, err := parseSlot(s[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("%v in %q", err, s)
			}
			f = append(f, p)
			i += end
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d in %q", c, i, s)
		}
	}
	flush()

	if len(f) == 0 {
		return nil, fmt.Errorf("empty format")
	}
	return f, nil
}

func parseSlot(body string) (Part, error) {
	split := strings.IndexFunc(body, unicode.IsDigit)
	if split <= 0 {
		return Part{}, fmt.Errorf("malformed slot {%s}", body)
	}

	w, err := strconv.ParseUint(body[split:], 10, 8)
	if err != nil || w == 0 || w > 64 {
		return Part{}, fmt.Errorf("bad width in slot {%s}", body)
	}

	p := Part{Width: uint(w)}
	switch body[:split] {
	case "R":
		p.Kind, p.Class = PartTyped, Register
	case "C":
		p.Kind, p.Class = PartTyped, Condition
	case "S":
		p.Kind, p.Class = PartTyped, Special
	case "IMM":
		p.Kind = PartImmediate
	case "E":
		p.Kind = PartExtra
	default:
		return Part{}, fmt.Errorf("unknown slot type %q", body[:split])
	}
	return p, nil
}
