package assembler

import (
	"github.com/golang/glog"

	"github.com/Urethramancer/zirc/isa"
)

// Option changes how an Assembler resolves a program.
type Option func(*options)

type options struct {
	strictLabels bool
}

// WithStrictLabels makes defining a label twice an error instead of letting the last definition win.
func WithStrictLabels() Option {
	return func(o *options) { o.strictLabels = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Assembler holds the state for the assembly process.
type Assembler struct {
	set     *isa.InstructionSet
	pseudos *PseudoTable
	opts    []Option

	labels map[string]uint64
	nodes  []*Node
}

// New creates an Assembler for set. It fails if the set's pseudo-instructions don't compile.
func New(set *isa.InstructionSet, opts ...Option) (*Assembler, error) {
	pseudos, err := NewPseudoTable(set)
	if err != nil {
		return nil, err
	}
	return &Assembler{set: set, pseudos: pseudos, opts: opts}, nil
}

// Assemble takes the source of one file and returns the machine code.
// The returned error is always an *Error.
func (asm *Assembler) Assemble(filename, src string) ([]byte, error) {
	asm.labels, asm.nodes = nil, nil

	units, err := Lex(filename, src, asm.set)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s: %d units", filename, len(units))

	nodes, err := Parse(units)
	if err != nil {
		return nil, err
	}

	nodes, err = asm.pseudos.Expand(nodes)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s: %d statements after expansion", filename, len(nodes))

	nodes, labels, err := Resolve(nodes, asm.set, asm.opts...)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s: %d labels", filename, len(labels))

	code, err := Generate(nodes, asm.set)
	if err != nil {
		return nil, err
	}
	if glog.V(2) {
		for _, n := range nodes {
			glog.Infof("%04x  %s", n.Address, n)
		}
	}

	asm.labels, asm.nodes = labels, nodes
	return code, nil
}

// Labels returns the label table of the last successful run.
func (asm *Assembler) Labels() map[string]uint64 {
	out := make(map[string]uint64, len(asm.labels))
	for k, v := range asm.labels {
		out[k] = v
	}
	return out
}

// Nodes returns the resolved program of the last successful run.
func (asm *Assembler) Nodes() []*Node {
	return asm.nodes
}

// Set returns the instruction set the assembler targets.
func (asm *Assembler) Set() *isa.InstructionSet {
	return asm.set
}
