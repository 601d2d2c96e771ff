package parser

import (
	"strings"
)

const tabWidth = 8

// Lex splits the source into tokens. Every non-blank line ends with a
// TokenNewline; changes of indentation produce TokenIndent and TokenDedent
// before the first token of the line. Blank lines and comment-only lines
// produce nothing.
func Lex(src string) ([]Token, error) {
	var tokens []Token
	indents := []int{0}

	lines := strings.Split(src, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		width, start := indentation(line)
		rest := line[start:]
		if rest == "" || rest[0] == '#' {
			continue
		}

		top := indents[len(indents)-1]
		switch {
		case width > top:
			indents = append(indents, width)
			tokens = append(tokens, Token{Type: TokenIndent, Line: lineNo, Col: 1})
		case width < top:
			for width < indents[len(indents)-1] {
				indents = indents[:len(indents)-1]
				tokens = append(tokens, Token{Type: TokenDedent, Line: lineNo, Col: 1})
			}
			if width != indents[len(indents)-1] {
				return nil, syntaxError(lineNo, start+1, "unindent does not match any outer indentation level")
			}
		}

		lineTokens, err := lexLine(line, start, lineNo)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, lineTokens...)
		tokens = append(tokens, Token{Type: TokenNewline, Line: lineNo, Col: len(line) + 1})
	}

	eofLine := len(lines)
	for len(indents) > 1 {
		indents = indents[:len(indents)-1]
		tokens = append(tokens, Token{Type: TokenDedent, Line: eofLine, Col: 1})
	}
	tokens = append(tokens, Token{Type: TokenEOF, Line: eofLine, Col: 1})
	return tokens, nil
}

// indentation returns the visual width of the leading whitespace and the
// byte offset of the first other character.
func indentation(line string) (width, offset int) {
	for offset < len(line) {
		switch line[offset] {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		default:
			return width, offset
		}
		offset++
	}
	return width, offset
}

func lexLine(line string, i, lineNo int) ([]Token, error) {
	var tokens []Token
	emit := func(typ TokenType, start, end int) {
		tokens = append(tokens, Token{Type: typ, Value: line[start:end], Line: lineNo, Col: start + 1})
	}

	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '#':
			return tokens, nil

		case isDigit(c):
			j := scanDigits(line, i)
			if j < len(line) && line[j] == 'd' {
				k := scanDigits(line, j+1)
				if k == j+1 {
					return nil, syntaxError(lineNo, i+1, "dice literal %q is missing the number of sides", line[i:j+1])
				}
				if k < len(line) && isIdentChar(line[k]) {
					return nil, syntaxError(lineNo, i+1, "invalid dice literal %q", line[i:scanIdent(line, k)])
				}
				emit(TokenDice, i, k)
				i = k
				continue
			}
			if j < len(line) && isIdentChar(line[j]) {
				return nil, syntaxError(lineNo, i+1, "invalid number literal %q", line[i:scanIdent(line, j)])
			}
			emit(TokenInt, i, j)
			i = j

		case isIdentStart(c):
			j := scanIdent(line, i)
			if isDiceName(line[i:j]) {
				emit(TokenDice, i, j)
			} else {
				emit(TokenName, i, j)
			}
			i = j

		default:
			n := operatorLen(line[i:])
			if n == 0 {
				return nil, syntaxError(lineNo, i+1, "unexpected character %q", c)
			}
			emit(TokenOp, i, i+n)
			i += n
		}
	}
	return tokens, nil
}

func operatorLen(s string) int {
	if len(s) >= 2 {
		switch s[:2] {
		case "+=", "-=", "*=", "<=", ">=", "==", "!=":
			return 2
		}
	}
	switch s[0] {
	case '+', '-', '*', '/', '%', '<', '>', '=', '(', ')', ':':
		return 1
	}
	return 0
}

func scanDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func scanIdent(s string, i int) int {
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	return i
}

// isDiceName reports whether an identifier is a dice literal with the
// count omitted, such as d6.
func isDiceName(s string) bool {
	return len(s) > 1 && s[0] == 'd' && scanDigits(s, 1) == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
