package assembler

// parser walks the unit sequence of one file.
type parser struct {
	units []Unit
	pos   int
}

// Parse groups units into label and instruction nodes.
// A label may share its line with the instruction that follows it; an
// instruction must be the last thing on its line.
func Parse(units []Unit) ([]*Node, error) {
	p := &parser{units: units}
	var nodes []*Node
	for {
		p.skipBreaks()
		if p.eof() {
			return nodes, nil
		}

		u := p.peek()
		if u.Kind != Identifier {
			return nil, errorf(SyntaxError, u.Pos, "expected label or instruction, found %s %q", u.Kind, u.Text)
		}

		if next, ok := p.peekAt(1); ok && next.Kind == Punctuation && next.Text == ":" {
			p.pos += 2
			nodes = append(nodes, &Node{Type: NodeLabel, Name: u})
			continue
		}

		n, err := p.instruction()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.units)
}

func (p *parser) peek() Unit {
	return p.units[p.pos]
}

func (p *parser) peekAt(offset int) (Unit, bool) {
	if p.pos+offset >= len(p.units) {
		return Unit{}, false
	}
	return p.units[p.pos+offset], true
}

func (p *parser) skipBreaks() {
	for !p.eof() && p.peek().Kind == LineBreak {
		p.pos++
	}
}

func (p *parser) atLineEnd() bool {
	return p.eof() || p.peek().Kind == LineBreak
}

// instruction parses a mnemonic and its comma-separated arguments.
func (p *parser) instruction() (*Node, error) {
	n := &Node{Type: NodeInstruction, Name: p.peek()}
	p.pos++
	if p.atLineEnd() {
		return n, nil
	}

	for {
		arg, err := p.argument()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, arg)

		if p.atLineEnd() {
			return n, nil
		}
		u := p.peek()
		if u.Kind != Punctuation || u.Text != "," {
			return nil, errorf(SyntaxError, u.Pos, "expected ',' or end of line after argument, found %s %q", u.Kind, u.Text)
		}
		p.pos++
		if p.atLineEnd() {
			return nil, errorf(SyntaxError, u.Pos, "missing argument after ','")
		}
	}
}

func (p *parser) argument() (Unit, error) {
	u := p.peek()
	switch u.Kind {
	case Number, Identifier, Register, Condition, SpecialRegister, String:
		p.pos++
		return u, nil
	default:
		return Unit{}, errorf(SyntaxError, u.Pos, "expected argument, found %s %q", u.Kind, u.Text)
	}
}
