package assembler

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/Urethramancer/zirc/isa"
)

func resolveSource(t *testing.T, src string, opts ...Option) ([]*Node, map[string]uint64, error) {
	t.Helper()
	nodes, err := expandSource(t, isa.Zirc16(), src)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return Resolve(nodes, isa.Zirc16(), opts...)
}

func TestResolveAddresses(t *testing.T) {
	src := `start:	hlt
	dw 1, 2, "ab"
mid:	db 1, 2, 3
after:	ldi r1, tail
	org 0x40
tail:	hlt
	dq 5
end:`
	nodes, labels, err := resolveSource(t, src)
	if err != nil {
		t.Fatal(err)
	}

	wantLabels := map[string]uint64{"start": 0, "mid": 5, "after": 6, "tail": 0x40, "end": 0x45}
	if diff := deep.Equal(labels, wantLabels); diff != nil {
		t.Errorf("labels: %v", diff)
	}

	type placed struct {
		Text    string
		Address uint64
		Size    uint64
	}
	var got []placed
	for _, n := range nodes {
		got = append(got, placed{n.String(), n.Address, n.Size})
	}
	want := []placed{
		{"hlt", 0, 2},
		{`dw 1, 2, "ab"`, 1, 8},
		{"db 1, 2, 3", 5, 3},
		{"lui 1", 6, 2},
		{"lim r1, 0", 7, 2},
		{"hlt", 0x40, 2},
		{"dq 5", 0x41, 8},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("nodes: %v", diff)
	}
}

func TestResolveForwardAndBackward(t *testing.T) {
	for _, src := range []string{"jmp L\nL: hlt", "L: hlt\njmp L"} {
		nodes, labels, err := resolveSource(t, src)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		for _, n := range nodes {
			if n.Mnemonic() != "brc" {
				continue
			}
			target := n.Args[1]
			if target.Kind != Number || target.Radix != 10 {
				t.Errorf("%q: label not rewritten to a base-10 number: %+v", src, target)
			}
			if v, _ := target.Value(); v != labels["L"] {
				t.Errorf("%q: jump target %d, label at %d", src, v, labels["L"])
			}
		}
	}
}

func TestResolveRedefinition(t *testing.T) {
	src := "x: hlt\nx: hlt\njmp x"
	nodes, labels, err := resolveSource(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if labels["x"] != 1 {
		t.Errorf("x = %d, want the last definition 1", labels["x"])
	}
	if got := nodes[2].String(); got != "brc al, 1" {
		t.Errorf("jump = %q", got)
	}

	_, _, err = resolveSource(t, src, WithStrictLabels())
	e, ok := err.(*Error)
	if !ok || e.Kind != SemanticError || e.Pos != pos(2, 1) {
		t.Errorf("strict mode: got %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		src string
		row int
		col int
	}{
		{"jmp NOPE", 1, 5},
		{"hlt\nldi r1, missing", 2, 9},
		{"org", 1, 1},
		{"org 1, 2", 1, 1},
		{"org start\nstart: hlt", 1, 5},
		{`org "x"`, 1, 5},
	}

	for _, test := range tests {
		_, _, err := resolveSource(t, test.src)
		e, ok := err.(*Error)
		if !ok {
			t.Errorf("Resolve(%q) = %v, want *Error", test.src, err)
			continue
		}
		if e.Kind != SemanticError || e.Pos.Row != test.row || e.Pos.Col != test.col {
			t.Errorf("Resolve(%q) = %v, want semantic error at %d:%d", test.src, e, test.row, test.col)
		}
	}
}
