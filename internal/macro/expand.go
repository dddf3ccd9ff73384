package macro

import "strings"

// Expand resolves every $(name), ${name} and bare legacy $name reference in
// text by searching the current scope outward to the root. References of
// the form $(name=default) substitute the default when the name is
// undefined, without recording a diagnostic.
//
// Unresolved names are emitted literally and recorded as diagnostics. In
// strict mode the first diagnostic is also returned as an error; the
// returned text is still the literal-degraded expansion either way.
func (c *Context) Expand(text string) (string, error) {
	out, errs := c.expandText(text, len(c.frames)-1, map[string]bool{})
	for _, e := range errs {
		c.record(e)
	}
	if c.opts.Strict && len(errs) > 0 {
		return out, errs[0]
	}
	return out, nil
}

// expandText performs one expansion pass over text, resolving references
// relative to frame index depth. visiting carries the set of macro names
// currently being expanded, for cycle detection.
func (c *Context) expandText(text string, depth int, visiting map[string]bool) (string, []*ExpansionError) {
	var b strings.Builder
	var errs []*ExpansionError

	i := 0
	for i < len(text) {
		if text[i] != '$' {
			b.WriteByte(text[i])
			i++
			continue
		}
		if i+1 < len(text) && (text[i+1] == '(' || text[i+1] == '{') {
			open := text[i+1]
			closing := byte(')')
			if open == '{' {
				closing = '}'
			}
			end := matchDelim(text, i+2, open, closing)
			if end < 0 {
				// Unterminated reference: pass the rest through.
				b.WriteString(text[i:])
				break
			}
			// References may nest: $(P$(N)) expands the inner name first.
			inner, innerErrs := c.expandText(text[i+2:end], depth, visiting)
			errs = append(errs, innerErrs...)

			name, def, hasDefault := strings.Cut(inner, "=")
			value, refErrs := c.resolve(name, depth, visiting)
			switch {
			case len(refErrs) == 0:
				b.WriteString(value)
			case hasDefault && refErrs[0].Code == ErrCodeUndefined:
				b.WriteString(def)
			default:
				for _, re := range refErrs {
					if re.Text == "" {
						re.Text = text
					}
				}
				errs = append(errs, refErrs...)
				if len(refErrs) == 1 && refErrs[0].Name == name && refErrs[0].Code == ErrCodeUndefined {
					// The reference itself failed: reproduce it with its
					// original delimiters.
					b.WriteByte('$')
					b.WriteByte(open)
					b.WriteString(inner)
					b.WriteByte(closing)
				} else {
					// A nested reference failed: keep the partial expansion.
					b.WriteString(value)
				}
			}
			i = end + 1
			continue
		}
		if i+1 < len(text) && isNameStart(text[i+1]) {
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			name := text[i+1 : j]
			value, refErrs := c.resolve(name, depth, visiting)
			if len(refErrs) == 0 {
				b.WriteString(value)
			} else {
				for _, re := range refErrs {
					if re.Text == "" {
						re.Text = text
					}
				}
				errs = append(errs, refErrs...)
				if len(refErrs) == 1 && refErrs[0].Name == name && refErrs[0].Code == ErrCodeUndefined {
					b.WriteString(text[i:j])
				} else {
					b.WriteString(value)
				}
			}
			i = j
			continue
		}
		b.WriteByte('$')
		i++
	}
	return b.String(), errs
}

// resolve returns the expanded value of one macro name, computing and
// caching it on first use. Nested references inside the value resolve
// relative to the frame the value was defined in. The returned string is a
// literal $(name) form when resolution fails; errors say why.
func (c *Context) resolve(name string, depth int, visiting map[string]bool) (string, []*ExpansionError) {
	e := c.lookup(name, depth)
	if e == nil {
		return "$(" + name + ")", []*ExpansionError{{Code: ErrCodeUndefined, Name: name}}
	}
	if e.cached {
		return e.expanded, nil
	}
	if visiting[name] {
		return "$(" + name + ")", []*ExpansionError{{Code: ErrCodeCycle, Name: name}}
	}

	visiting[name] = true
	expanded, errs := c.expandText(e.raw, e.depth, visiting)
	delete(visiting, name)

	if len(errs) == 0 {
		// Cached until the owning frame is popped or the name redefined.
		e.expanded = expanded
		e.cached = true
	}
	return expanded, errs
}

// matchDelim returns the index of the delimiter closing the reference that
// opened just before start, honoring nested references of the same shape.
// Returns -1 if unterminated.
func matchDelim(text string, start int, open, closing byte) int {
	level := 1
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			if i > 0 && text[i-1] == '$' {
				level++
			}
		case closing:
			level--
			if level == 0 {
				return i
			}
		}
	}
	return -1
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || (ch >= '0' && ch <= '9')
}
