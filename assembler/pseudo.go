package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Urethramancer/zirc/isa"
)

// maxExpansionDepth bounds how many rounds of pseudo-instruction expansion may run.
const maxExpansionDepth = 16

// pseudo is one compiled pseudo-instruction template.
type pseudo struct {
	name   string
	params []string
	fields map[string]isa.BitField
	body   []*Node
}

// PseudoTable maps pseudo mnemonics, overloaded by arity, to their templates.
// It is immutable once built.
type PseudoTable struct {
	entries map[string]map[int]*pseudo
}

// NewPseudoTable compiles the pseudo-instruction definitions of set.
// Templates are lexed and parsed with the same rules as source files.
func NewPseudoTable(set *isa.InstructionSet) (*PseudoTable, error) {
	t := &PseudoTable{entries: make(map[string]map[int]*pseudo)}
	for _, def := range set.Pseudos() {
		p, err := compilePseudo(def, set)
		if err != nil {
			return nil, err
		}
		if _, real := set.Format(p.name); real {
			return nil, errorf(ConfigError, Position{}, "pseudo-instruction %s shadows a real instruction", p.name)
		}
		if t.entries[p.name] == nil {
			t.entries[p.name] = make(map[int]*pseudo)
		}
		if _, dup := t.entries[p.name][len(p.params)]; dup {
			return nil, errorf(ConfigError, Position{}, "pseudo-instruction %s defined twice with %d arguments", p.name, len(p.params))
		}
		t.entries[p.name][len(p.params)] = p
	}
	return t, nil
}

func compilePseudo(def isa.PseudoDef, set *isa.InstructionSet) (*pseudo, error) {
	sig, err := parseTemplate("signature", def.Signature, set)
	if err != nil {
		return nil, err
	}
	if len(sig) != 1 || sig[0].Type != NodeInstruction {
		return nil, errorf(ConfigError, Position{}, "pseudo-instruction signature %q must be a single instruction", def.Signature)
	}

	p := &pseudo{name: sig[0].Mnemonic(), fields: def.Fields}
	for _, a := range sig[0].Args {
		if a.Kind != Identifier {
			return nil, errorf(ConfigError, Position{}, "%s: formal %q is not a plain name", p.name, a.Text)
		}
		p.params = append(p.params, a.Text)
	}
	if dups := lo.FindDuplicates(p.params); len(dups) > 0 {
		return nil, errorf(ConfigError, Position{}, "%s: formal %q declared twice", p.name, dups[0])
	}
	for name, f := range def.Fields {
		if lo.Contains(p.params, name) {
			return nil, errorf(ConfigError, Position{}, "%s: field %q hides a formal", p.name, name)
		}
		if !lo.Contains(p.params, f.Param) {
			return nil, errorf(ConfigError, Position{}, "%s: field %q selects from unknown formal %q", p.name, name, f.Param)
		}
		if f.Width == 0 || f.Shift+f.Width > 64 {
			return nil, errorf(ConfigError, Position{}, "%s: field %q selects bits outside a 64-bit value", p.name, name)
		}
	}

	p.body, err = parseTemplate(p.name, def.Body, set)
	if err != nil {
		return nil, err
	}
	if len(p.body) == 0 {
		return nil, errorf(ConfigError, Position{}, "%s: empty template", p.name)
	}
	if l, ok := lo.Find(p.body, func(n *Node) bool { return n.Type == NodeLabel }); ok {
		return nil, errorf(ConfigError, Position{}, "%s: label %q in template", p.name, l.Name.Text)
	}
	return p, nil
}

// parseTemplate runs the lexer and stage A parser over template text.
// Failures are reported as configuration errors.
func parseTemplate(name, text string, lexicon Lexicon) ([]*Node, error) {
	units, err := Lex("", text, lexicon)
	if err == nil {
		var nodes []*Node
		nodes, err = Parse(units)
		if err == nil {
			return nodes, nil
		}
	}
	return nil, errorf(ConfigError, Position{}, "pseudo-instruction %s: %v", name, err)
}

// Has reports whether mnemonic names a pseudo-instruction of any arity.
func (t *PseudoTable) Has(mnemonic string) bool {
	_, ok := t.entries[strings.ToLower(mnemonic)]
	return ok
}

// Expand replaces every pseudo-instruction in nodes with its template, in place
// of the original, until no pseudo-instruction remains.
func (t *PseudoTable) Expand(nodes []*Node) ([]*Node, error) {
	for depth := 0; ; depth++ {
		changed := false
		next := make([]*Node, 0, len(nodes))
		for _, n := range nodes {
			if n.Type != NodeInstruction {
				next = append(next, n)
				continue
			}
			arities, ok := t.entries[n.Mnemonic()]
			if !ok {
				next = append(next, n)
				continue
			}
			if depth == maxExpansionDepth {
				return nil, errorf(ConfigError, n.Name.Pos, "pseudo-instruction %s still expanding after %d rounds", n.Mnemonic(), maxExpansionDepth)
			}

			p, ok := arities[len(n.Args)]
			if !ok {
				counts := lo.Keys(arities)
				sort.Ints(counts)
				return nil, errorf(SyntaxError, n.Name.Pos, "%s takes %s argument(s), got %d", n.Mnemonic(), joinInts(counts), len(n.Args))
			}

			expanded, err := p.instantiate(n)
			if err != nil {
				return nil, err
			}
			next = append(next, expanded...)
			changed = true
		}
		nodes = next
		if !changed {
			return nodes, nil
		}
	}
}

// instantiate binds the actual arguments of call to the formals and copies the template.
// Substituted arguments keep their own positions; everything else takes the call's position.
func (p *pseudo) instantiate(call *Node) ([]*Node, error) {
	bound := make(map[string]Unit, len(p.params)+len(p.fields))
	for i, name := range p.params {
		bound[name] = call.Args[i]
	}

	for name, f := range p.fields {
		actual := bound[f.Param]
		switch actual.Kind {
		case Number:
			v, err := actual.Value()
			if err != nil {
				return nil, errorf(SemanticError, actual.Pos, "%s: %v", p.name, err)
			}
			bound[name] = numberUnit(f.Apply(v), actual.Pos)
		case Identifier:
			u := actual
			u.Fields = append(append([]isa.BitField(nil), actual.Fields...), f)
			bound[name] = u
		default:
			return nil, errorf(SemanticError, actual.Pos, "%s: argument %q must be a number or a label, not a %s", p.name, actual.Text, actual.Kind)
		}
	}

	out := make([]*Node, 0, len(p.body))
	for _, tmpl := range p.body {
		n := &Node{Type: NodeInstruction, Name: tmpl.Name}
		n.Name.Pos = call.Name.Pos
		for _, a := range tmpl.Args {
			if actual, ok := bound[a.Text]; ok && a.Kind == Identifier {
				n.Args = append(n.Args, actual)
				continue
			}
			a.Pos = call.Name.Pos
			n.Args = append(n.Args, a)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(list []int) string {
	return strings.Join(lo.Map(list, func(n int, _ int) string { return fmt.Sprint(n) }), " or ")
}
