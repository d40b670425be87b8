package disassembler

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Urethramancer/zirc/isa"
)

// Instruction represents a single decoded instruction at a specific address.
type Instruction struct {
	Address  uint64 // word address
	Offset   int    // byte offset into the image
	Word     uint64
	Mnemonic string
	Format   isa.Format
	Fields   []uint64
	IsCode   bool // Flag to mark as reachable code
}

// candidate is one mnemonic the decoder may match.
type candidate struct {
	mnemonic string
	format   isa.Format
	mask     uint64
}

// decoder tries formats with the most constant bits first.
type decoder struct {
	set        *isa.InstructionSet
	candidates []candidate
}

func newDecoder(set *isa.InstructionSet) *decoder {
	list := lo.Map(set.Mnemonics(), func(m string, _ int) candidate {
		f, _ := set.Format(m)
		mask, _ := f.Pattern()
		return candidate{mnemonic: m, format: f, mask: mask}
	})
	sort.SliceStable(list, func(i, j int) bool {
		return bits.OnesCount64(list[i].mask) > bits.OnesCount64(list[j].mask)
	})
	return &decoder{set: set, candidates: list}
}

// decode finds the instruction a word encodes. Typed fields must name a value of their class.
func (d *decoder) decode(word uint64) (candidate, []uint64, bool) {
	for _, c := range d.candidates {
		if !isa.Match(c.format, word) {
			continue
		}
		fields := c.format.Fields(word)
		if d.namesValid(c.format, fields) {
			return c, fields, true
		}
	}
	return candidate{}, nil, false
}

func (d *decoder) namesValid(f isa.Format, fields []uint64) bool {
	i := 0
	for _, p := range f {
		if p.Kind == isa.PartConst {
			continue
		}
		if p.Kind == isa.PartTyped {
			if _, ok := d.set.NameOf(p.Class, fields[i]); !ok {
				return false
			}
		}
		i++
	}
	return true
}

// Disassemble performs a multi-stage disassembly of an image loaded at the
// word address origin. The output assembles back to the same image.
func Disassemble(code []byte, set *isa.InstructionSet, origin uint64) (string, error) {
	if set == nil {
		return "", errors.New("no instruction set")
	}
	if len(code) == 0 {
		return "", nil
	}

	size := int(set.Width() / 8)
	dec := newDecoder(set)

	// --- STAGE 1: Linear Sweep ---
	instructions := make(map[int]*Instruction)
	for pc := 0; pc+size <= len(code); pc += size {
		word := isa.Word(code[pc:], set.Width())
		c, fields, ok := dec.decode(word)
		if !ok {
			continue
		}
		instructions[pc] = &Instruction{
			Address:  origin + uint64(pc/2),
			Offset:   pc,
			Word:     word,
			Mnemonic: c.mnemonic,
			Format:   c.format,
			Fields:   fields,
		}
	}

	// --- STAGE 2: Control Flow Analysis ---
	labels := make(map[int]string)
	q := newQueue()
	q.push(0)
	for {
		pc, ok := q.pop()
		if !ok {
			break
		}

		inst, exists := instructions[pc]
		if !exists || inst.IsCode {
			continue
		}
		inst.IsCode = true

		if !set.IsTerminal(inst.Mnemonic) {
			q.push(pc + size)
		}
		if target, ok := branchTarget(inst, set, origin, len(code)); ok {
			q.push(target)
			labels[target] = labelName(origin + uint64(target/2))
		}
	}
	// Only targets that turned out to be code get a label line.
	for pc := range labels {
		if inst, ok := instructions[pc]; !ok || !inst.IsCode {
			delete(labels, pc)
		}
	}

	// --- STAGE 3: Render Final Output ---
	var out strings.Builder
	if origin != 0 {
		fmt.Fprintf(&out, "    %-8s 0x%04x\n", "org", origin)
	}

	stringCounter := 1
	for pc := 0; pc < len(code); {
		// If the current address is not marked as code, find the end of the
		// data block and pass it to the data analyzer.
		if inst, isCode := instructions[pc]; !isCode || !inst.IsCode {
			end := pc
			for end < len(code) {
				if inst, isCode := instructions[end]; isCode && inst.IsCode {
					break
				}
				end += size
			}
			if end > len(code) {
				end = len(code)
			}
			out.WriteString(analyzeAndFormatData(code[pc:end], &stringCounter))
			pc = end
			continue
		}

		inst := instructions[pc]
		if name, ok := labels[pc]; ok {
			fmt.Fprintf(&out, "%s:\n", name)
		}
		operands := renderOperands(inst, set, origin, labels)
		if operands != "" {
			fmt.Fprintf(&out, "    %-8s %s\n", inst.Mnemonic, operands)
		} else {
			fmt.Fprintf(&out, "    %s\n", inst.Mnemonic)
		}
		pc += size
	}

	return out.String(), nil
}

// branchTarget returns the byte offset a branch instruction jumps to, if it lies in the image.
func branchTarget(inst *Instruction, set *isa.InstructionSet, origin uint64, length int) (int, bool) {
	if !set.IsBranch(inst.Mnemonic) {
		return 0, false
	}
	i := 0
	for _, p := range inst.Format {
		if p.Kind == isa.PartConst {
			continue
		}
		if p.Kind == isa.PartImmediate {
			addr := inst.Fields[i]
			if addr < origin {
				return 0, false
			}
			off := int(addr-origin) * 2
			if off >= length || off%int(set.Width()/8) != 0 {
				return 0, false
			}
			return off, true
		}
		i++
	}
	return 0, false
}

// renderOperands writes the operand list of inst. Trailing zero extras are left out.
func renderOperands(inst *Instruction, set *isa.InstructionSet, origin uint64, labels map[int]string) string {
	var ops []string
	var kinds []isa.PartKind
	i := 0
	for _, p := range inst.Format {
		if p.Kind == isa.PartConst {
			continue
		}
		v := inst.Fields[i]
		i++
		switch p.Kind {
		case isa.PartTyped:
			name, _ := set.NameOf(p.Class, v)
			ops = append(ops, name)
		case isa.PartImmediate:
			text := strconv.FormatUint(v, 10)
			if set.IsBranch(inst.Mnemonic) && v >= origin {
				if name, ok := labels[int(v-origin)*2]; ok {
					text = name
				}
			}
			ops = append(ops, text)
		default:
			ops = append(ops, strconv.FormatUint(v, 10))
		}
		kinds = append(kinds, p.Kind)
	}

	for len(ops) > 0 && kinds[len(kinds)-1] == isa.PartExtra && ops[len(ops)-1] == "0" {
		ops = ops[:len(ops)-1]
		kinds = kinds[:len(kinds)-1]
	}
	return strings.Join(ops, ", ")
}

func labelName(addr uint64) string {
	return fmt.Sprintf("loc_%04X", addr)
}

// addrQueue is a simple worklist queue for byte offsets to decode.
type addrQueue struct {
	items []int
	seen  map[int]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[int]bool)}
}

func (q *addrQueue) push(pc int) {
	if !q.seen[pc] {
		q.items = append(q.items, pc)
		q.seen[pc] = true
	}
}

func (q *addrQueue) pop() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	pc := q.items[0]
	q.items = q.items[1:]
	return pc, true
}
