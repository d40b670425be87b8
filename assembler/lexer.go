package assembler

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Urethramancer/zirc/isa"
)

// Lexicon classifies words that name registers, conditions or special registers.
// *isa.InstructionSet satisfies it.
type Lexicon interface {
	ClassOf(word string) (isa.Class, bool)
}

// Lexer holds the state of a single scanning pass over one source file.
type Lexer struct {
	file    string
	src     []rune
	pos     int // index of the next rune to consume
	row     int
	col     int
	lexicon Lexicon
}

// Lex splits text into positioned units. It stops at the first bad character,
// digit or string literal.
func Lex(filename, text string, lexicon Lexicon) ([]Unit, error) {
	l := &Lexer{file: filename, src: []rune(text), row: 1, col: 1, lexicon: lexicon}
	var units []Unit
	for {
		u, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return units, nil
		}
		units = append(units, u)
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) advance() rune {
	if l.eof() {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) position() Position {
	return Position{File: l.file, Row: l.row, Col: l.col}
}

// skipSpace skips whitespace other than newlines, and ';' comments up to the end of the line.
func (l *Lexer) skipSpace() {
	for !l.eof() {
		r := l.peek()
		switch {
		case r == ';':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		case r != '\n' && unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) next() (Unit, bool, error) {
	l.skipSpace()
	if l.eof() {
		return Unit{}, false, nil
	}

	pos := l.position()
	r := l.peek()
	switch {
	case r == '\n':
		l.advance()
		return Unit{Text: "\n", Kind: LineBreak, Pos: pos}, true, nil
	case r == ',' || r == ':':
		l.advance()
		return Unit{Text: string(r), Kind: Punctuation, Pos: pos}, true, nil
	case r == '"' || r == '\'':
		u, err := l.scanString(pos)
		return u, err == nil, err
	case isWordRune(r):
		u, err := l.scanWord(pos)
		return u, err == nil, err
	default:
		return Unit{}, false, errorf(LexError, pos, "unexpected character %q", r)
	}
}

// scanString consumes a quoted literal. The opening quote must still be at l.peek().
func (l *Lexer) scanString(pos Position) (Unit, error) {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.eof() {
			return Unit{}, errorf(LexError, pos, "unterminated string")
		}
		at := l.position()
		r := l.advance()
		switch r {
		case quote:
			return Unit{Text: sb.String(), Kind: String, Pos: pos}, nil
		case '\\':
			if l.eof() {
				return Unit{}, errorf(LexError, at, "unterminated escape")
			}
			e := l.advance()
			switch e {
			case 'n':
				sb.WriteRune('\n')
			case '0':
				sb.WriteRune(0)
			case '\\', '"', '\'':
				sb.WriteRune(e)
			default:
				return Unit{}, errorf(LexError, at, "unknown escape \\%c", e)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// scanWord consumes a maximal run of letters, digits and underscores and classifies it.
func (l *Lexer) scanWord(pos Position) (Unit, error) {
	start := l.pos
	for !l.eof() && isWordRune(l.peek()) {
		l.advance()
	}
	word := l.src[start:l.pos]
	text := string(word)

	switch {
	case strings.HasPrefix(text, "0x"):
		return l.number(word[2:], 16, pos, 2)
	case strings.HasPrefix(text, "0b"):
		return l.number(word[2:], 2, pos, 2)
	case word[0] >= '0' && word[0] <= '9':
		return l.number(word, 10, pos, 0)
	}

	if l.lexicon != nil {
		if c, ok := l.lexicon.ClassOf(text); ok {
			return Unit{Text: strings.ToLower(text), Kind: kindOfClass(c), Pos: pos}, nil
		}
	}
	return Unit{Text: text, Kind: Identifier, Pos: pos}, nil
}

// number validates digits in radix. skip is the length of the prefix in front of digits.
func (l *Lexer) number(digits []rune, radix int, pos Position, skip int) (Unit, error) {
	if len(digits) == 0 {
		return Unit{}, errorf(LexError, pos, "missing digits after %s prefix", radixPrefix(radix))
	}
	for i, r := range digits {
		if !isDigit(r, radix) {
			at := pos
			at.Col += skip + i
			return Unit{}, errorf(LexError, at, "invalid digit %q in base %d literal", r, radix)
		}
	}

	text := string(digits)
	if _, err := strconv.ParseUint(text, radix, 64); err != nil {
		return Unit{}, errorf(LexError, pos, "number %s%s out of range", radixPrefix(radix), text)
	}
	return Unit{Text: text, Kind: Number, Radix: radix, Pos: pos}, nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune, radix int) bool {
	switch radix {
	case 2:
		return r == '0' || r == '1'
	case 16:
		return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	default:
		return r >= '0' && r <= '9'
	}
}

func radixPrefix(radix int) string {
	switch radix {
	case 16:
		return "0x"
	case 2:
		return "0b"
	default:
		return ""
	}
}
