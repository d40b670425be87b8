package isa

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ErrConfig is wrapped by every error caused by a malformed instruction set definition.
var ErrConfig = errors.New("invalid instruction set")

// Class identifies a named operand value table.
type Class int

const (
	// Register operands, written {R<width>} in a format string.
	Register Class = iota
	// Condition codes, written {C<width>}.
	Condition
	// Special registers, written {S<width>}.
	Special
)

func (c Class) String() string {
	switch c {
	case Register:
		return "register"
	case Condition:
		return "condition"
	case Special:
		return "special register"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// BitField selects Width bits starting at bit Shift of the formal parameter Param.
type BitField struct {
	Param string
	Shift uint
	Width uint
}

// Apply extracts the field from v.
func (f BitField) Apply(v uint64) uint64 {
	return (v >> f.Shift) & lowMask(f.Width)
}

// PseudoDef is the textual definition of a pseudo-instruction.
// Signature is "name formal, formal"; Body holds one real instruction per line.
// Fields declares extra formals derived from bit fields of the declared ones.
type PseudoDef struct {
	Signature string
	Body      string
	Fields    map[string]BitField
}

// Definition is the static description an InstructionSet is built from.
type Definition struct {
	Name    string
	Width   uint
	Formats map[string]string
	Classes map[Class]map[string]uint64
	Pseudos []PseudoDef
	// Branches lists mnemonics whose immediate operand is an absolute jump target.
	Branches []string
	// Terminals lists mnemonics after which execution never falls through.
	Terminals []string
}

// InstructionSet is an immutable, validated instruction set.
type InstructionSet struct {
	name      string
	width     uint
	formats   map[string]Format
	values    map[Class]map[string]uint64
	reverse   map[Class]map[uint64]string
	classOf   map[string]Class
	pseudos   []PseudoDef
	branches  map[string]bool
	terminals map[string]bool
}

// New validates def and builds an InstructionSet from it.
func New(def Definition) (*InstructionSet, error) {
	if def.Width == 0 || def.Width%16 != 0 || def.Width > 64 {
		return nil, fmt.Errorf("%w: %s: instruction width %d is not a multiple of 16 up to 64", ErrConfig, def.Name, def.Width)
	}

	set := &InstructionSet{
		name:      def.Name,
		width:     def.Width,
		formats:   make(map[string]Format, len(def.Formats)),
		values:    make(map[Class]map[string]uint64),
		reverse:   make(map[Class]map[uint64]string),
		classOf:   make(map[string]Class),
		pseudos:   def.Pseudos,
		branches:  make(map[string]bool),
		terminals: make(map[string]bool),
	}

	for class, table := range def.Classes {
		set.values[class] = make(map[string]uint64, len(table))
		set.reverse[class] = make(map[uint64]string, len(table))
		for name, v := range table {
			key := strings.ToLower(name)
			if other, dup := set.classOf[key]; dup {
				return nil, fmt.Errorf("%w: %s: name %q is both a %s and a %s", ErrConfig, def.Name, key, other, class)
			}
			set.classOf[key] = class
			set.values[class][key] = v
			if prev, ok := set.reverse[class][v]; !ok || key < prev {
				set.reverse[class][v] = key
			}
		}
	}

	for mnemonic, text := range def.Formats {
		f, err := ParseFormat(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %v", ErrConfig, def.Name, mnemonic, err)
		}
		if w := f.Width(); w != def.Width {
			return nil, fmt.Errorf("%w: %s: %s is %d bits wide, want %d", ErrConfig, def.Name, mnemonic, w, def.Width)
		}
		for _, p := range f {
			if p.Kind == PartTyped && len(set.values[p.Class]) == 0 {
				return nil, fmt.Errorf("%w: %s: %s uses a %s slot but the set defines none", ErrConfig, def.Name, mnemonic, p.Class)
			}
		}
		set.formats[strings.ToLower(mnemonic)] = f
	}

	widest := make(map[Class]uint)
	for _, f := range set.formats {
		for _, p := range f {
			if p.Kind == PartTyped && p.Width > widest[p.Class] {
				widest[p.Class] = p.Width
			}
		}
	}
	for class, w := range widest {
		for name, v := range set.values[class] {
			if bits.Len64(v) > int(w) {
				return nil, fmt.Errorf("%w: %s: %s %q = %d does not fit in %d bits", ErrConfig, def.Name, class, name, v, w)
			}
		}
	}

	for _, m := range def.Branches {
		if _, ok := set.formats[m]; !ok {
			return nil, fmt.Errorf("%w: %s: branch hint for unknown instruction %q", ErrConfig, def.Name, m)
		}
		set.branches[m] = true
	}
	for _, m := range def.Terminals {
		if _, ok := set.formats[m]; !ok {
			return nil, fmt.Errorf("%w: %s: terminal hint for unknown instruction %q", ErrConfig, def.Name, m)
		}
		set.terminals[m] = true
	}

	return set, nil
}

// MustNew is like New but panics on an invalid definition.
// Only meant for the built-in tables.
func MustNew(def Definition) *InstructionSet {
	set, err := New(def)
	if err != nil {
		panic(err)
	}
	return set
}

// Name of the instruction set.
func (set *InstructionSet) Name() string { return set.name }

// Width of every instruction in bits.
func (set *InstructionSet) Width() uint { return set.width }

// Format returns the operand layout of a mnemonic.
func (set *InstructionSet) Format(mnemonic string) (Format, bool) {
	f, ok := set.formats[strings.ToLower(mnemonic)]
	return f, ok
}

// Mnemonics returns all real mnemonics in sorted order.
func (set *InstructionSet) Mnemonics() []string {
	list := lo.Keys(set.formats)
	sort.Strings(list)
	return list
}

// ClassOf reports which value class a word belongs to, if any.
func (set *InstructionSet) ClassOf(word string) (Class, bool) {
	c, ok := set.classOf[strings.ToLower(word)]
	return c, ok
}

// Value looks up a name in a class table.
func (set *InstructionSet) Value(class Class, name string) (uint64, bool) {
	v, ok := set.values[class][strings.ToLower(name)]
	return v, ok
}

// NameOf is the reverse of Value.
func (set *InstructionSet) NameOf(class Class, v uint64) (string, bool) {
	name, ok := set.reverse[class][v]
	return name, ok
}

// Pseudos returns the pseudo-instruction definitions.
func (set *InstructionSet) Pseudos() []PseudoDef { return set.pseudos }

// IsBranch reports whether the mnemonic's immediate is an absolute jump target.
func (set *InstructionSet) IsBranch(mnemonic string) bool { return set.branches[mnemonic] }

// IsTerminal reports whether execution stops after the mnemonic.
func (set *InstructionSet) IsTerminal(mnemonic string) bool { return set.terminals[mnemonic] }

func lowMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}
