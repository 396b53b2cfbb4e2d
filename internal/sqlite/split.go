package sqlite

import "strings"

// SplitStatements splits a migration script on statement-terminating
// semicolons. Semicolons inside quoted strings, quoted identifiers and
// comments do not split. Fragments holding only whitespace or comments are
// dropped.
//
// Trigger bodies (BEGIN ... END) are not recognized and must not be used in
// migration files.
func SplitStatements(script string) []string {
	var (
		out     []string
		cur     strings.Builder
		hasCode bool
	)
	flush := func() {
		if hasCode {
			out = append(out, strings.TrimSpace(cur.String()))
		}
		cur.Reset()
		hasCode = false
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closingQuote(script, i, c)
			cur.WriteString(script[i:end])
			hasCode = true
			i = end - 1
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				end = len(script)
			} else {
				end += i
			}
			cur.WriteString(script[i:end])
			i = end - 1
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				end = len(script)
			} else {
				end += i + 4
			}
			cur.WriteString(script[i:end])
			i = end - 1
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				hasCode = true
			}
		}
	}
	flush()
	return out
}

// closingQuote returns the index just past the quote that closes the one
// at start. A doubled quote is an escaped quote.
func closingQuote(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}
