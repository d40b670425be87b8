package assembler

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/Urethramancer/zirc/isa"
)

// Assembles source and checks against an expected byte sequence (in hex).
// Automatically validates output length and content.
func assembleAndMatchHex(t *testing.T, name, src, expectedHex string) {
	t.Helper()

	expectedHex = strings.ToLower(strings.Join(strings.Fields(expectedHex), ""))
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		t.Fatalf("[%s] invalid expected hex string: %v", name, err)
	}

	asm, err := New(isa.Zirc16())
	if err != nil {
		t.Fatalf("[%s] New: %v", name, err)
	}
	code, err := asm.Assemble(name+".s", src)
	if err != nil {
		t.Fatalf("[%s] failed to assemble:\n%s\nerror: %v", name, src, err)
	}
	if len(code) != len(expected) {
		t.Fatalf("[%s] expected %d bytes, got %d\nexpected: % X\ngot:      % X",
			name, len(expected), len(code), expected, code)
	}
	for i := range code {
		if code[i] != expected[i] {
			t.Errorf("[%s] mismatch at byte %d\nexpected: % X\ngot:      % X\nnodes: %s",
				name, i, expected, code, spew.Sdump(asm.Nodes()))
			break
		}
	}
}

func TestBasicEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"HLT", "hlt", "00 00"},
		{"ADD", "add r1, r2", "08 90"},
		{"SUB", "sub r15, r0", "17 80"},
		{"ADI", "adi r1, 63", "18 FE"},
		{"AND", "and r1, r2", "20 90"},
		{"NOR", "nor r1, r2", "28 90"},
		{"XOR", "xor r1, r2", "30 90"},
		{"RSH", "rsh r1", "38 80"},
		{"CMP", "cmp r1, r2, 3", "40 93"},
		{"LIM", "lim r2, 43", "49 56"},
		{"LUI", "lui 1023", "57 FE"},
		{"PSH", "psh r1, r2", "58 90"},
		{"POP", "pop r1, r2", "60 90"},
		{"STR", "str r1, r2", "68 90"},
		{"LOD", "lod r1, r2", "70 90"},
		{"BRC", "brc eq, 5", "78 8A"},
		{"BAL", "bal al, r5", "80 28"},
		{"RET", "ret", "88 00"},
		{"Hex", "adi r1, 0x3F", "18 FE"},
		{"Binary", "adi r1, 0b111111", "18 FE"},
		{"Upper", "ADD R1, R2", "08 90"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestExtraSlot(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"Omitted", "add r1, r2", "08 90"},
		{"One", "add r1, r2, 1", "08 91"},
		{"Zero", "add r1, r2, 0", "08 90"},
		{"Ignored", "add r1, r2, 1, 1", "08 91"},
		{"BranchFlag", "brc al, 0, 1", "78 01"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestPseudoEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"MOV", "mov r1, r2", "30 88 30 90"},
		{"LSH", "lsh r3", "09 80"},
		{"NOP", "nop", "08 00"},
		{"INC", "inc r1", "18 82"},
		{"JMP", "jmp 1", "78 02"},
		{"LDI", "ldi r2, 0x2AB", "50 14 49 56"},
		{"LDIForward", "org 0x40\nldi r1, data\ndata: dw 7", "50 02 48 84 00 07"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"Forward", "jmp L\nL: hlt", "78 02 00 00"},
		{"Backward", "L: hlt\njmp L", "00 00 78 00"},
		{"Org", "org 0x10\nL: hlt\njmp L", "00 00 78 20"},
		{"DataSizing", "dw 1, 2, \"ab\"\nL: hlt\njmp L", "00 01 00 02 00 61 00 62 00 00 78 08"},
		{"OddBytes", "db 1, 2, 3\nL: hlt\njmp L", "01 02 03 00 00 78 02"},
		{"Comments", "; header\nloop: inc r1 ; bump\n  jmp loop ; again\n", "18 82 78 00"},
		{"Strings", "msg: db \"Hi\\n\", 0\nhlt", "48 69 0A 00 00 00"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestPseudoDeterminism(t *testing.T) {
	asm, err := New(isa.Zirc16())
	if err != nil {
		t.Fatal(err)
	}
	a, err := asm.Assemble("a.s", "top: mov r3, r4\njmp top")
	if err != nil {
		t.Fatal(err)
	}
	b, err := asm.Assemble("b.s", "top: xor r3, r3\nxor r3, r4\nbrc al, top")
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Errorf("pseudo expansion differs from hand-written code:\n% X\n% X", a, b)
	}
}

func TestAssemblerState(t *testing.T) {
	asm, err := New(isa.Zirc16(), WithStrictLabels())
	if err != nil {
		t.Fatal(err)
	}
	if asm.Set() != isa.Zirc16() {
		t.Error("Set() returned another instruction set")
	}

	if _, err := asm.Assemble("ok.s", "start: hlt\nend: ret"); err != nil {
		t.Fatal(err)
	}
	labels := asm.Labels()
	if labels["start"] != 0 || labels["end"] != 1 || len(labels) != 2 {
		t.Errorf("labels = %v", labels)
	}
	labels["start"] = 99
	if asm.Labels()["start"] != 0 {
		t.Error("Labels() exposes internal state")
	}
	if len(asm.Nodes()) != 2 {
		t.Errorf("Nodes() = %s", spew.Sdump(asm.Nodes()))
	}

	_, err = asm.Assemble("dup.s", "x: hlt\nx: hlt")
	if k, _ := KindOf(err); k != SemanticError {
		t.Errorf("strict duplicate label: %v", err)
	}
	if len(asm.Labels()) != 0 || asm.Nodes() != nil {
		t.Error("state of a failed run should be empty")
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind ErrorKind
		text string
	}{
		{"jmp NOPE", SemanticError, `bad.s:1:5: semantic error: undeclared label "NOPE"`},
		{"adi r1, 64", SemanticError, "bad.s:1:9: semantic error: number too big: 64 does not fit in 6 bits"},
		{"hlt\n$", LexError, `bad.s:2:1: lex error: unexpected character '$'`},
		{"hlt r1 r2", SyntaxError, `bad.s:1:8: syntax error: expected ',' or end of line after argument, found register "r2"`},
		{"mov r1", SyntaxError, "bad.s:1:1: syntax error: mov takes 2 argument(s), got 1"},
	}

	asm, err := New(isa.Zirc16())
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range tests {
		code, err := asm.Assemble("bad.s", test.src)
		if code != nil {
			t.Errorf("%q produced output", test.src)
		}
		var e *Error
		if !errors.As(err, &e) {
			t.Errorf("%q: got %v, want *Error", test.src, err)
			continue
		}
		if e.Kind != test.kind || e.Error() != test.text {
			t.Errorf("%q: got %q, want %q", test.src, e.Error(), test.text)
		}
	}
}
