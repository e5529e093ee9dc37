// Package path parses dotted field paths such as "knights[2].name" into
// navigation segments.
package path

import (
	"strconv"
	"strings"
	"unicode"

	lexline "github.com/johnsiilver/halfpike/line"
	"github.com/pkg/errors"
)

// Seg is a single navigation step: a struct field name or an array index.
type Seg struct {
	Name    string
	Index   int
	IsIndex bool
}

// Parse splits a dotted path into segments. Whitespace between tokens is
// ignored, so "a . b[ 3 ]" parses the same as "a.b[3]".
func Parse(s string) ([]Seg, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty path")
	}
	lex := lexline.New(s)

	// Lex the line to strip spaces, then scan the compacted form.
	buff := strings.Builder{}
	for {
		i := lex.Next()
		if i.Type == lexline.ItemEOF || i.Type == lexline.ItemEOL {
			break
		}
		if i.Type == lexline.ItemSpace {
			continue
		}
		buff.WriteString(i.Val)
	}

	p := buff.String()
	if p == "" {
		return nil, errors.New("empty path")
	}

	var segs []Seg
	r := []rune(p)
	pos := 0
	wantDot := false

	for pos < len(r) {
		switch {
		case r[pos] == '.':
			if !wantDot {
				return nil, errors.Errorf("unexpected '.' at position %d", pos)
			}
			wantDot = false
			pos++
		case r[pos] == '[':
			end := pos + 1
			for end < len(r) && r[end] != ']' {
				end++
			}
			if end == len(r) {
				return nil, errors.Errorf("unterminated '[' at position %d", pos)
			}
			idx, err := strconv.Atoi(string(r[pos+1 : end]))
			if err != nil {
				return nil, errors.Errorf("bad index %q at position %d", string(r[pos+1:end]), pos)
			}
			segs = append(segs, Seg{Index: idx, IsIndex: true})
			wantDot = true
			pos = end + 1
		case isIdentStart(r[pos]):
			if wantDot {
				return nil, errors.Errorf("expected '.' or '[' before %q at position %d", r[pos], pos)
			}
			end := pos
			for end < len(r) && isIdentPart(r[end]) {
				end++
			}
			segs = append(segs, Seg{Name: string(r[pos:end])})
			wantDot = true
			pos = end
		default:
			return nil, errors.Errorf("unexpected %q at position %d", r[pos], pos)
		}
	}
	if !wantDot {
		return nil, errors.New("path ends mid-segment")
	}
	return segs, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
