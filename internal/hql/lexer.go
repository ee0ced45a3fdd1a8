package hql

import "strings"

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokWord
	tokString
	tokQuotedIdent
	tokNumber
	tokPunct
	tokComment
)

type token struct {
	kind tokenKind
	text string
}

// keyword returns the lower-cased text of a word token, or "" for anything else.
func (t token) keyword() string {
	if t.kind != tokWord {
		return ""
	}
	return strings.ToLower(t.text)
}

func isWordStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isWordPart(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lex splits a query into tokens. Concatenating the token texts yields the input.
// An unterminated string or quoted identifier runs to the end of the input.
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		start := i
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			for i < len(src) && strings.IndexByte(" \t\n\r", src[i]) >= 0 {
				i++
			}
			toks = append(toks, token{tokSpace, src[start:i]})
		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			toks = append(toks, token{tokComment, src[start:i]})
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += end + 4
			}
			toks = append(toks, token{tokComment, src[start:i]})
		case c == '\'' || c == '"' || c == '`':
			i = scanQuoted(src, i, c)
			kind := tokQuotedIdent
			if c == '\'' {
				kind = tokString
			}
			toks = append(toks, token{kind, src[start:i]})
		case isDigit(c):
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'e' || src[i] == 'E') {
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i]})
		case isWordStart(c):
			for i < len(src) && isWordPart(src[i]) {
				i++
			}
			toks = append(toks, token{tokWord, src[start:i]})
		default:
			i++
			toks = append(toks, token{tokPunct, src[start:i]})
		}
	}
	return toks
}

// scanQuoted returns the index just past the closing quote, honouring doubled quotes.
func scanQuoted(src string, i int, q byte) int {
	i++
	for i < len(src) {
		if src[i] == q {
			if i+1 < len(src) && src[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(src)
}

func join(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String()
}

// significant reports whether a token carries meaning for the parser.
func (t token) significant() bool {
	return t.kind != tokSpace && t.kind != tokComment
}
