package disassembler

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	minStrLen    = 4
	wordsPerLine = 8
)

// isPrintableWord checks if a 16-bit word holds one printable ASCII character.
func isPrintableWord(w uint16) bool {
	return w >= 0x20 && w <= 0x7E
}

// analyzeAndFormatData renders bytes that are not reachable code as dw directives.
// Runs of at least four character words become labelled strings.
func analyzeAndFormatData(data []byte, stringCounter *int) string {
	var sb strings.Builder
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}

	n := len(words)
	i := 0
	for i < n {
		// Skip non-printables first
		start := i
		for start < n && !isPrintableWord(words[start]) {
			start++
		}
		end := start
		for end < n && isPrintableWord(words[end]) {
			end++
		}

		if end-start < minStrLen {
			sb.WriteString(formatHexWords(words[i:end]))
			i = end
			continue
		}

		sb.WriteString(formatHexWords(words[i:start]))
		label := fmt.Sprintf("string%d:", *stringCounter)
		(*stringCounter)++
		text := quote(words[start:end])
		if end < n && words[end] == 0 {
			text += ", 0"
			end++
		}
		fmt.Fprintf(&sb, "%-8s %-8s %s\n", label, "dw", text)
		i = end
	}

	if len(data)%2 != 0 {
		fmt.Fprintf(&sb, "    %-8s 0x%02x\n", "db", data[len(data)-1])
	}
	return sb.String()
}

// quote turns character words into a string literal the lexer reads back unchanged.
func quote(words []uint16) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, w := range words {
		c := byte(w)
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}

// formatHexWords formats words into dw directives, eight per line.
func formatHexWords(words []uint16) string {
	var sb strings.Builder
	for _, chunk := range lo.Chunk(words, wordsPerLine) {
		hex := lo.Map(chunk, func(w uint16, _ int) string { return fmt.Sprintf("0x%04x", w) })
		fmt.Fprintf(&sb, "    %-8s %s\n", "dw", strings.Join(hex, ", "))
	}
	return sb.String()
}
