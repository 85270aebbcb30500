// Package token segments raw log lines into typed tokens without prior
// knowledge of the line's grammar. Tokenization is total: every input,
// including unterminated quotes and brackets, produces a token sequence
// whose concatenated values reproduce the line byte-exactly.
package token

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind uint8

const (
	// Bracket is a balanced [...] (...) or {...} group, delimiters included.
	Bracket Kind = iota
	// Delimiter is a maximal run of whitespace and punctuation.
	Delimiter
	// Quoted is a single- or double-quoted string, quotes included.
	Quoted
	// Alphanumeric is a maximal run of letters and digits.
	Alphanumeric
	// Special is a single character outside all other classes.
	Special
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case Bracket:
		return "BRACKET"
	case Delimiter:
		return "DELIMITER"
	case Quoted:
		return "QUOTED"
	case Alphanumeric:
		return "ALPHANUMERIC"
	case Special:
		return "SPECIAL"
	}
	return "INVALID"
}

// Token is one segment of a log line. Start and End are byte offsets into
// the owning line; Value == line[Start:End].
type Token struct {
	Value string
	Start int
	End   int
	Kind  Kind
}

// delimiterChars are the punctuation characters that, outside quotes and
// brackets, merge with whitespace into DELIMITER runs. Open brackets and
// quotes are absent: they switch the scanner state instead.
const delimiterChars = ",.:;|=!?/\\-_#@%&*<>~^+])}"

type scanState uint8

const (
	stateDefault scanState = iota
	stateBracket
	stateQuote
)

var bracketPairs = map[rune]rune{'[': ']', '(': ')', '{': '}'}

// Tokenize splits line into an ordered token sequence. It never fails;
// unrecognized runs degrade to SPECIAL or ALPHANUMERIC classification and
// unterminated quotes or brackets close at end of line.
func Tokenize(line string) []Token {
	if line == "" {
		return nil
	}

	var tokens []Token
	i := 0
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])

		switch {
		case bracketPairs[r] != 0:
			end := scanBracket(line, i)
			tokens = append(tokens, Token{Value: line[i:end], Start: i, End: end, Kind: Bracket})
			i = end
		case r == '\'' || r == '"':
			end := scanQuote(line, i, r)
			tokens = append(tokens, Token{Value: line[i:end], Start: i, End: end, Kind: Quoted})
			i = end
		case isDelimiterRune(r):
			end := i + size
			for end < len(line) {
				nr, ns := utf8.DecodeRuneInString(line[end:])
				if !isDelimiterRune(nr) {
					break
				}
				end += ns
			}
			tokens = append(tokens, Token{Value: line[i:end], Start: i, End: end, Kind: Delimiter})
			i = end
		case isAlnumRune(r):
			end := i + size
			for end < len(line) {
				nr, ns := utf8.DecodeRuneInString(line[end:])
				if !isAlnumRune(nr) {
					break
				}
				end += ns
			}
			tokens = append(tokens, Token{Value: line[i:end], Start: i, End: end, Kind: Alphanumeric})
			i = end
		default:
			tokens = append(tokens, Token{Value: line[i : i+size], Start: i, End: i + size, Kind: Special})
			i += size
		}
	}

	return tokens
}

// scanBracket consumes a bracket group starting at open, tracking nested
// brackets of any kind and quoted spans inside the group. Returns the byte
// offset one past the matching closer, or len(line) when unterminated.
func scanBracket(line string, open int) int {
	var closers []rune
	state := stateBracket
	var quote rune

	i := open
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size

		if state == stateQuote {
			if r == '\\' && i < len(line) {
				_, esc := utf8.DecodeRuneInString(line[i:])
				i += esc
				continue
			}
			if r == quote {
				state = stateBracket
			}
			continue
		}

		if c, ok := bracketPairs[r]; ok {
			closers = append(closers, c)
			continue
		}
		if r == '\'' || r == '"' {
			state = stateQuote
			quote = r
			continue
		}
		if len(closers) > 0 && r == closers[len(closers)-1] {
			closers = closers[:len(closers)-1]
			if len(closers) == 0 {
				return i
			}
		}
	}
	return len(line)
}

// scanQuote consumes a quoted span starting at open with the given quote
// rune, honoring backslash escapes. Returns the byte offset one past the
// closing quote, or len(line) when unterminated.
func scanQuote(line string, open int, quote rune) int {
	i := open + utf8.RuneLen(quote)
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size
		if r == '\\' && i < len(line) {
			_, esc := utf8.DecodeRuneInString(line[i:])
			i += esc
			continue
		}
		if r == quote {
			return i
		}
	}
	return len(line)
}

func isDelimiterRune(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(delimiterChars, r)
}

func isAlnumRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Reconstruct concatenates token values in order. For tokens produced by
// Tokenize on a single line this returns the original line.
func Reconstruct(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// ShapeKey returns the coarse structural signature used to group lines
// before alignment: the token count followed by the token kind sequence.
func ShapeKey(tokens []Token) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(tokens)))
	sb.WriteByte('|')
	for _, t := range tokens {
		switch t.Kind {
		case Bracket:
			sb.WriteByte('B')
		case Delimiter:
			sb.WriteByte('D')
		case Quoted:
			sb.WriteByte('Q')
		case Alphanumeric:
			sb.WriteByte('A')
		case Special:
			sb.WriteByte('S')
		}
	}
	return sb.String()
}
