package interp

import (
	"fmt"
	"strings"
)

// splitLine strips any trailing comment from one script line and tokenizes
// the remainder. Two line shapes are recognized:
//
//	dbLoadRecords("db/vac.db", "P=IOC:A")   call form
//	cd /opt/ioc "with spaces"               word form
//
// The call form splits arguments at top-level commas; the word form splits
// at whitespace. Both respect single and double quoting and strip the
// quotes from the resulting tokens. The first token is the command name.
//
// An unterminated quote is a syntax error.
func splitLine(line string) ([]string, error) {
	code, err := stripComment(line)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	if name, argText, ok := callForm(code); ok {
		args, err := splitArgs(argText)
		if err != nil {
			return nil, err
		}
		return append([]string{name}, args...), nil
	}
	return splitWords(code)
}

// stripComment removes an unquoted trailing '#' comment.
func stripComment(line string) (string, error) {
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#':
			return line[:i], nil
		}
	}
	if quote != 0 {
		return "", fmt.Errorf("unterminated %c quote", quote)
	}
	return line, nil
}

// callForm reports whether code is `name(args)` with a bare name and the
// closing paren at end of line.
func callForm(code string) (name, argText string, ok bool) {
	open := strings.IndexByte(code, '(')
	if open <= 0 || !strings.HasSuffix(code, ")") {
		return "", "", false
	}
	name = code[:open]
	if strings.ContainsAny(name, " \t\"'") {
		return "", "", false
	}
	return name, code[open+1 : len(code)-1], true
}

// splitArgs splits the call-form argument list at top-level commas.
func splitArgs(argText string) ([]string, error) {
	if strings.TrimSpace(argText) == "" {
		return nil, nil
	}
	var args []string
	var b strings.Builder
	var quote byte
	for i := 0; i < len(argText); i++ {
		ch := argText[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' && i+1 < len(argText) {
				i++
				b.WriteByte(argText[i])
				continue
			}
			if ch == quote {
				quote = 0
				continue
			}
			b.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ',':
			args = append(args, strings.TrimSpace(b.String()))
			b.Reset()
		case ch == ' ' || ch == '\t':
			// Whitespace outside quotes is insignificant between args but
			// preserved inside an unquoted arg.
			if b.Len() > 0 {
				b.WriteByte(ch)
			}
		default:
			b.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	args = append(args, strings.TrimSpace(b.String()))
	return args, nil
}

// splitWords splits at unquoted whitespace.
func splitWords(code string) ([]string, error) {
	var words []string
	var b strings.Builder
	var quote byte
	inWord := false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' && i+1 < len(code) {
				i++
				b.WriteByte(code[i])
				continue
			}
			if ch == quote {
				quote = 0
				continue
			}
			b.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				words = append(words, b.String())
				b.Reset()
				inWord = false
			}
		default:
			b.WriteByte(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		words = append(words, b.String())
	}
	return words, nil
}
