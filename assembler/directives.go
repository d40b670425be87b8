package assembler

import (
	"github.com/samber/lo"

	"github.com/Urethramancer/zirc/isa"
)

// directiveWidth returns the slot size in bytes of a data directive.
func directiveWidth(mnemonic string) (uint, bool) {
	switch mnemonic {
	case "db":
		return 1, true
	case "dw":
		return 2, true
	case "dd":
		return 4, true
	case "dq":
		return 8, true
	default:
		return 0, false
	}
}

// IsDirective reports whether mnemonic is handled by the assembler itself.
func IsDirective(mnemonic string) bool {
	_, data := directiveWidth(mnemonic)
	return data || mnemonic == "org"
}

// dataSize calculates the byte size of a data directive.
// A string takes one slot per character, anything else one slot.
func dataSize(n *Node, width uint) uint64 {
	return lo.SumBy(n.Args, func(a Unit) uint64 {
		if a.Kind == String {
			return uint64(len([]rune(a.Text))) * uint64(width)
		}
		return uint64(width)
	})
}

// appendData emits the arguments of a data directive, each value masked to the slot width.
func appendData(out []byte, n *Node, width uint) ([]byte, error) {
	bits := width * 8
	mask := ^uint64(0) >> (64 - bits)
	for _, a := range n.Args {
		switch a.Kind {
		case Number:
			v, err := a.Value()
			if err != nil {
				return nil, errorf(SemanticError, a.Pos, "%s: %v", n.Mnemonic(), err)
			}
			out = isa.AppendWord(out, v&mask, bits)
		case String:
			for _, r := range a.Text {
				out = isa.AppendWord(out, uint64(r)&mask, bits)
			}
		case Identifier:
			return nil, errorf(InternalError, a.Pos, "unresolved label %q reached code generation", a.Text)
		default:
			return nil, errorf(SemanticError, a.Pos, "%s cannot hold %s %q", n.Mnemonic(), a.Kind, a.Text)
		}
	}
	return out, nil
}
