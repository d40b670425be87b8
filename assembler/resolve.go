package assembler

import (
	"github.com/golang/glog"

	"github.com/Urethramancer/zirc/isa"
)

// Resolve assigns an address to every node, records label addresses, drops
// labels and org directives, and replaces every label reference with its
// address as a base-10 number. Addresses count 16-bit words.
func Resolve(nodes []*Node, set *isa.InstructionSet, opts ...Option) ([]*Node, map[string]uint64, error) {
	o := buildOptions(opts)
	labels := make(map[string]uint64)
	defined := make(map[string]Position)
	words := uint64(set.Width() / 16)

	var origin, cursor uint64
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == NodeLabel {
			name := n.Name.Text
			if prev, dup := defined[name]; dup {
				if o.strictLabels {
					return nil, nil, errorf(SemanticError, n.Name.Pos, "label %q already defined at %s", name, prev)
				}
				glog.V(1).Infof("%s: label %q redefined, previous definition at %s", n.Name.Pos, name, prev)
			}
			labels[name] = origin + cursor
			defined[name] = n.Name.Pos
			continue
		}

		m := n.Mnemonic()
		if m == "org" {
			v, err := orgAddress(n)
			if err != nil {
				return nil, nil, err
			}
			origin, cursor = v, 0
			continue
		}

		n.Address = origin + cursor
		if w, ok := directiveWidth(m); ok {
			n.Size = dataSize(n, w)
			cursor += n.Size / 2
		} else {
			n.Size = words * 2
			cursor += words
		}
		out = append(out, n)
	}

	for _, n := range out {
		for i, a := range n.Args {
			if a.Kind != Identifier {
				continue
			}
			addr, ok := labels[a.Text]
			if !ok {
				return nil, nil, errorf(SemanticError, a.Pos, "undeclared label %q", a.Text)
			}
			n.Args[i] = numberUnit(applyFields(addr, a.Fields), a.Pos)
		}
	}
	return out, labels, nil
}

func orgAddress(n *Node) (uint64, error) {
	if len(n.Args) != 1 {
		return 0, errorf(SemanticError, n.Name.Pos, "org takes exactly one argument, got %d", len(n.Args))
	}
	a := n.Args[0]
	if a.Kind != Number {
		return 0, errorf(SemanticError, a.Pos, "org needs a number, got %s %q", a.Kind, a.Text)
	}
	v, err := a.Value()
	if err != nil {
		return 0, errorf(SemanticError, a.Pos, "bad org address: %v", err)
	}
	return v, nil
}
