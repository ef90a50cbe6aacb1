package migration

import "strings"

// SplitStatements breaks a SQL script into statements on semicolons that sit outside
// quoted text and comments. Comments are dropped and empty statements are skipped.
//
// Recognized quoting: '...' (with '' escapes), "..." and `...`. Comments: -- to end of line
// and /* ... */. Postgres dollar-quoted bodies are not understood.
func SplitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	rs := []rune(script)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\'' || r == '"' || r == '`':
			end := closingQuote(rs, i)
			cur.WriteString(string(rs[i:end]))
			i = end - 1
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i+1 < len(rs) && !(rs[i] == '*' && rs[i+1] == '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
		case r == ';':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// closingQuote returns the index just past the quote that closes the one at start.
// A doubled quote character is an escape. An unterminated quote runs to the end.
func closingQuote(rs []rune, start int) int {
	q := rs[start]
	for i := start + 1; i < len(rs); i++ {
		if rs[i] != q {
			continue
		}
		if i+1 < len(rs) && rs[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(rs)
}
