package engine

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites scene source into something zygomys accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global bindings that could shadow user variables.
//   - kebab-case identifiers become snake_case, since zygomys reads a hyphen
//     as subtraction.
//   - ; line comments become // comments.
//
// String literals pass through untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: []byte(source)}
	p.out = make([]byte, 0, len(source)+len(source)/4)
	for p.pos < len(p.src) {
		p.step()
	}
	return string(p.out)
}

type preprocessor struct {
	src []byte
	out []byte
	pos int
}

func (p *preprocessor) peek(off int) (byte, bool) {
	i := p.pos + off
	if i < 0 || i >= len(p.src) {
		return 0, false
	}
	return p.src[i], true
}

func (p *preprocessor) emit(b ...byte) {
	p.out = append(p.out, b...)
}

func (p *preprocessor) step() {
	c := p.src[p.pos]
	switch {
	case c == '"':
		p.quoted('"', true)
	case c == '`':
		p.quoted('`', false)
	case c == ';':
		p.comment()
	case c == ':':
		p.colon()
	case c == '-' && p.inIdentifier():
		p.emit('_')
		p.pos++
	default:
		p.emit(c)
		p.pos++
	}
}

// quoted copies a literal delimited by delim, honoring backslash escapes
// when escapes is set.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	p.emit(delim)
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if escapes && c == '\\' && p.pos+1 < len(p.src) {
			p.emit(c, p.src[p.pos+1])
			p.pos += 2
			continue
		}
		p.emit(c)
		p.pos++
		if c == delim {
			return
		}
	}
}

// comment converts a run of ; into // and copies the rest of the line.
func (p *preprocessor) comment() {
	p.emit('/', '/')
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.emit(p.src[p.pos])
		p.pos++
	}
}

func (p *preprocessor) colon() {
	next, ok := p.peek(1)
	switch {
	case ok && next == '=':
		p.emit(':', '=')
		p.pos += 2
	case ok && isLetter(next):
		end := p.pos + 1
		for end < len(p.src) && isKWChar(p.src[end]) {
			end++
		}
		p.emit('"')
		p.emit([]byte(kwPrefix)...)
		p.emit(p.src[p.pos+1 : end]...)
		p.emit('"')
		p.pos = end
	default:
		p.emit(':')
		p.pos++
	}
}

// inIdentifier reports whether the hyphen at pos joins two identifier
// characters rather than acting as a minus sign.
func (p *preprocessor) inIdentifier() bool {
	prev, okPrev := p.peek(-1)
	next, okNext := p.peek(1)
	return okPrev && okNext && isIdentChar(prev) && isLetter(next)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
