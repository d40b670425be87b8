package assembler

import (
	"strings"

	"github.com/samber/lo"
)

// NodeType defines the type of an assembly node.
type NodeType int

const (
	// NodeInstruction is a real instruction, a pseudo-instruction or a directive.
	NodeInstruction NodeType = iota
	// NodeLabel defines a label at the current address.
	NodeLabel
)

// Node represents one parsed statement from the assembly source.
type Node struct {
	Type NodeType
	// Name is the label name or the mnemonic.
	Name Unit
	Args []Unit
	// Address and Size are filled in by Resolve. Address counts words, Size counts bytes.
	Address uint64
	Size    uint64
}

// Mnemonic returns the lower-cased mnemonic of an instruction node.
func (n *Node) Mnemonic() string {
	return strings.ToLower(n.Name.Text)
}

func (n *Node) String() string {
	if n.Type == NodeLabel {
		return n.Name.Text + ":"
	}
	if len(n.Args) == 0 {
		return n.Mnemonic()
	}
	args := lo.Map(n.Args, func(u Unit, _ int) string { return u.String() })
	return n.Mnemonic() + " " + strings.Join(args, ", ")
}
