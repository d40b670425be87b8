package isa

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var zirc16 = Definition{
	Name:  "zirc16",
	Width: 16,
	Formats: map[string]string{
		"hlt": "00000 0000 0000 000",
		"add": "00001 {R4} {R4} 00{E1}",
		"sub": "00010 {R4} {R4} 00{E1}",
		"adi": "00011 {R4} {IMM6} 0",
		"and": "00100 {R4} {R4} 000",
		"nor": "00101 {R4} {R4} 000",
		"xor": "00110 {R4} {R4} 000",
		"rsh": "00111 {R4} 0000 00{E1}",
		"cmp": "01000 {R4} {R4} 0{E2}",
		"lim": "01001 {R4} {IMM6} 0",
		"lui": "01010 {IMM10} 0",
		"psh": "01011 {R4} {R4} 000",
		"pop": "01100 {R4} {R4} 000",
		"str": "01101 {R4} {R4} 000",
		"lod": "01110 {R4} {R4} 000",
		"brc": "01111 {C4} {IMM6} {E1}",
		"bal": "10000 {C4} {R4} 00{E1}",
		"ret": "10001 0000 0000 000",
	},
	Classes: map[Class]map[string]uint64{
		Register:  registers(16),
		Condition: {"al": 0, "eq": 1, "ne": 2, "lt": 3, "ge": 4, "gt": 5, "le": 6, "cs": 7, "cc": 8},
	},
	Pseudos: []PseudoDef{
		{Signature: "mov a, b", Body: "xor a, a\nxor a, b"},
		{Signature: "lsh rd", Body: "add rd, r0"},
		{Signature: "jmp addr", Body: "brc al, addr"},
		{Signature: "nop", Body: "add r0, r0"},
		{Signature: "inc rd", Body: "adi rd, 1"},
		{
			Signature: "ldi rd, value",
			Body:      "lui hi\nlim rd, lo",
			Fields: map[string]BitField{
				"hi": {Param: "value", Shift: 6, Width: 10},
				"lo": {Param: "value", Shift: 0, Width: 6},
			},
		},
	},
	Branches:  []string{"brc"},
	Terminals: []string{"hlt", "ret"},
}

func registers(n int) map[string]uint64 {
	m := make(map[string]uint64, n)
	for i := 0; i < n; i++ {
		m[fmt.Sprintf("r%d", i)] = uint64(i)
	}
	return m
}

// Zirc16 returns the built-in zirc16 instruction set.
var Zirc16 = sync.OnceValue(func() *InstructionSet {
	return MustNew(zirc16)
})

var registry = map[string]func() *InstructionSet{
	"zirc16": Zirc16,
}

// Lookup finds a built-in instruction set by name.
func Lookup(name string) (*InstructionSet, bool) {
	get, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return get(), true
}

// Names lists the built-in instruction sets.
func Names() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
