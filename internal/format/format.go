// Package format scans printf-style format strings for conversion
// specifiers. It understands the three conversions printguard validates
// (%d/%i, %f, %s) plus the optional sign/width/precision options between
// the percent sign and the conversion character. Anything else, including
// unknown conversions, is treated as literal text.
package format

import "regexp"

// CType is a C type that a conversion specifier can format.
type CType int

const (
	Int CType = iota
	Float
	String
)

// String returns the C spelling of the type.
func (t CType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "char*"
	}
	return "unknown"
}

// SpecifierChar returns the canonical conversion character for the type.
func (t CType) SpecifierChar() byte {
	switch t {
	case Int:
		return 'd'
	case Float:
		return 'f'
	case String:
		return 's'
	}
	return '?'
}

// FormatFn returns the name of the runtime formatter function used by the
// optimized rewrite for this type.
func (t CType) FormatFn() string {
	switch t {
	case Int:
		return "fmt_int"
	case Float:
		return "fmt_float"
	case String:
		return "fmt_string"
	}
	return "fmt_unknown"
}

// Specifier is a single conversion in a format string.
type Specifier struct {
	// Options is the "-2.3" part of "%-2.3f". Empty when absent.
	Options string
	// Type the conversion expects its argument to have.
	Type CType
}

// specRe matches a conversion at the start of its input: a percent sign,
// optional sign/width/precision options, and one of the known conversion
// characters.
var specRe = regexp.MustCompile(`^%([+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+))?([disf])`)

// Scanner iterates over the conversion specifiers in a format string body
// (the text between the quotes, escapes left as written).
type Scanner struct {
	src string
	pos int

	before    string
	remainder string
	start     int
	end       int
}

// NewScanner returns a Scanner over the given format string body.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, remainder: src}
}

// Next returns the next specifier. After a successful call, Before reports
// the literal text since the previous specifier, Span the byte range of the
// specifier within the format body, and Remainder the text after it.
func (s *Scanner) Next() (Specifier, bool) {
	chunkStart := s.pos
	i := s.pos
	for i < len(s.src) {
		switch s.src[i] {
		case '\\':
			// A backslash escapes the next byte, so "\%d" is literal text.
			i += 2
		case '%':
			m := specRe.FindStringSubmatch(s.src[i:])
			if m == nil {
				i++
				continue
			}
			s.before = s.src[chunkStart:i]
			s.start = i
			s.end = i + len(m[0])
			s.pos = s.end
			s.remainder = s.src[s.pos:]
			spec := Specifier{Options: m[1]}
			switch m[2] {
			case "d", "i":
				spec.Type = Int
			case "s":
				spec.Type = String
			case "f":
				spec.Type = Float
			}
			return spec, true
		default:
			i++
		}
	}
	s.pos = len(s.src)
	return Specifier{}, false
}

// Before returns the literal chunk between the previous specifier and the
// one most recently returned by Next.
func (s *Scanner) Before() string { return s.before }

// Remainder returns the text after the most recently returned specifier,
// or the whole format body if Next has not matched yet.
func (s *Scanner) Remainder() string { return s.remainder }

// Span returns the byte range of the most recently returned specifier
// within the format body.
func (s *Scanner) Span() (start, end int) { return s.start, s.end }

// Count consumes the scanner and returns how many specifiers remain.
func (s *Scanner) Count() int {
	n := 0
	for {
		if _, ok := s.Next(); !ok {
			return n
		}
		n++
	}
}
