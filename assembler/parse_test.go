package assembler

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/Urethramancer/zirc/isa"
)

func parseSource(t *testing.T, src string) ([]*Node, error) {
	t.Helper()
	units, err := Lex("test.s", src, isa.Zirc16())
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	return Parse(units)
}

func TestParse(t *testing.T) {
	src := "\n\nstart: hlt\n\n  add r1, r2, 1\nmsg: db \"hi\", 0\nend:\n"
	nodes, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"start:", "hlt", "add r1, r2, 1", "msg:", `db "hi", 0`, "end:"}
	if len(nodes) != len(want) {
		t.Fatalf("got %d nodes, want %d: %s", len(nodes), len(want), spew.Sdump(nodes))
	}
	for i, n := range nodes {
		if n.String() != want[i] {
			t.Errorf("node %d = %q, want %q", i, n.String(), want[i])
		}
	}

	if nodes[0].Type != NodeLabel || nodes[1].Type != NodeInstruction {
		t.Errorf("wrong node types: %s", spew.Sdump(nodes[:2]))
	}
	if p := nodes[2].Args[1].Pos; p != pos(5, 11) {
		t.Errorf("second argument of add at %s, want 5:11", p)
	}
}

func TestParseMnemonicCase(t *testing.T) {
	nodes, err := parseSource(t, "HLT\nAdd r1, r2")
	if err != nil {
		t.Fatal(err)
	}
	if nodes[0].Mnemonic() != "hlt" || nodes[1].Mnemonic() != "add" {
		t.Errorf("mnemonics not lower-cased: %s", spew.Sdump(nodes))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		col int
	}{
		{", hlt", 1},
		{"42", 1},
		{"r1: hlt", 1},
		{"add r1 r2", 8},
		{"add r1,", 7},
		{"add , r1", 5},
		{"add r1, :", 9},
		{"a: : hlt", 4},
		{"hlt hlt: add", 8},
	}

	for _, test := range tests {
		_, err := parseSource(t, test.src)
		e, ok := err.(*Error)
		if !ok {
			t.Errorf("Parse(%q) = %v, want *Error", test.src, err)
			continue
		}
		if e.Kind != SyntaxError || e.Pos.Col != test.col {
			t.Errorf("Parse(%q) = %v, want syntax error at column %d", test.src, e, test.col)
		}
	}
}
