package assembler

import (
	"math/bits"

	"github.com/Urethramancer/zirc/isa"
)

// Generate turns resolved nodes into the final big-endian image, in node order.
func Generate(nodes []*Node, set *isa.InstructionSet) ([]byte, error) {
	var out []byte
	var err error
	for _, n := range nodes {
		if n.Type == NodeLabel {
			return nil, errorf(InternalError, n.Name.Pos, "label %q reached code generation", n.Name.Text)
		}

		m := n.Mnemonic()
		if m == "org" {
			return nil, errorf(InternalError, n.Name.Pos, "org directive reached code generation")
		}
		if w, ok := directiveWidth(m); ok {
			out, err = appendData(out, n, w)
		} else {
			out, err = appendInstruction(out, n, set)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendInstruction packs the arguments of n into its format and appends the word.
// Arguments left over after the last slot are ignored.
func appendInstruction(out []byte, n *Node, set *isa.InstructionSet) ([]byte, error) {
	m := n.Mnemonic()
	f, ok := set.Format(m)
	if !ok {
		return nil, errorf(SemanticError, n.Name.Pos, "unknown instruction %q", n.Name.Text)
	}

	var word uint64
	var off uint
	args := n.Args
	for _, p := range f {
		var v uint64
		switch p.Kind {
		case isa.PartConst:
			v = p.Bits

		case isa.PartTyped:
			if len(args) == 0 {
				return nil, errorf(SemanticError, n.Name.Pos, "%s: missing %s operand at bit %d", m, p.Class, off)
			}
			a := args[0]
			args = args[1:]
			if want := kindOfClass(p.Class); a.Kind != want {
				return nil, errorf(SemanticError, a.Pos, "%s: expected %s at bit %d, got %s %q", m, want, off, a.Kind, a.Text)
			}
			v, ok = set.Value(p.Class, a.Text)
			if !ok {
				return nil, errorf(SemanticError, a.Pos, "%s: unknown %s %q", m, p.Class, a.Text)
			}
			if err := checkFits(a, v, p.Width); err != nil {
				return nil, err
			}

		case isa.PartImmediate, isa.PartExtra:
			if len(args) == 0 {
				if p.Kind == isa.PartExtra {
					break
				}
				return nil, errorf(SemanticError, n.Name.Pos, "%s: missing immediate operand at bit %d", m, off)
			}
			a := args[0]
			args = args[1:]
			var err error
			v, err = numericOperand(m, a, off)
			if err != nil {
				return nil, err
			}
			if err := checkFits(a, v, p.Width); err != nil {
				return nil, err
			}
		}

		word = word<<p.Width | v
		off += p.Width
	}

	if off != set.Width() {
		return nil, errorf(InternalError, n.Name.Pos, "%s: encoded %d bits, want %d", m, off, set.Width())
	}
	return isa.AppendWord(out, word, off), nil
}

func numericOperand(m string, a Unit, off uint) (uint64, error) {
	switch a.Kind {
	case Number:
		v, err := a.Value()
		if err != nil {
			return 0, errorf(SemanticError, a.Pos, "%s: %v", m, err)
		}
		return v, nil
	case Identifier:
		return 0, errorf(InternalError, a.Pos, "unresolved label %q reached code generation", a.Text)
	default:
		return 0, errorf(SemanticError, a.Pos, "%s: expected number at bit %d, got %s %q", m, off, a.Kind, a.Text)
	}
}

func checkFits(a Unit, v uint64, width uint) error {
	if bits.Len64(v) > int(width) {
		return errorf(SemanticError, a.Pos, "number too big: %d does not fit in %d bits", v, width)
	}
	return nil
}
