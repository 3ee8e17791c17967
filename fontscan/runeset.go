// Package fontscan provides a compact rune-coverage bitset that can
// answer "does this font's cmap have a glyph for this codepoint" without
// a cmap lookup per query (ported from the fontconfig-inspired page-set
// design in the teacher's fontscan package, see DESIGN.md). The shaping
// packages do not import it; the normalizer queries the face's cmap
// directly.
package fontscan

import "sort"

// pageSet is a 256-bit set, one bit per low byte of a rune.
type pageSet [8]uint32

func (p *pageSet) set(b byte) { p[b>>5] |= 1 << (b & 0x1f) }

func (p pageSet) has(b byte) bool { return p[b>>5]&(1<<(b&0x1f)) != 0 }

type page struct {
	ref uint16 // rune >> 8
	set pageSet
}

// RuneSet is a compact, sorted-by-page representation of a set of runes,
// sized for "every codepoint this font's cmap covers".
type RuneSet []page

// Add records r as present in the set.
func (s *RuneSet) Add(r rune) {
	ref := uint16(r >> 8)
	i := sort.Search(len(*s), func(i int) bool { return (*s)[i].ref >= ref })
	if i < len(*s) && (*s)[i].ref == ref {
		(*s)[i].set.set(byte(r))
		return
	}
	*s = append(*s, page{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = page{ref: ref}
	(*s)[i].set.set(byte(r))
}

// AddRange records every rune in [lo,hi] as present.
func (s *RuneSet) AddRange(lo, hi rune) {
	for r := lo; r <= hi; r++ {
		s.Add(r)
	}
}

// Has reports whether r was recorded.
func (s RuneSet) Has(r rune) bool {
	ref := uint16(r >> 8)
	i := sort.Search(len(s), func(i int) bool { return s[i].ref >= ref })
	if i < len(s) && s[i].ref == ref {
		return s[i].set.has(byte(r))
	}
	return false
}

// Len reports how many distinct runes are recorded. Intended for tests
// and diagnostics, not the hot path.
func (s RuneSet) Len() int {
	n := 0
	for _, p := range s {
		for _, word := range p.set {
			for word != 0 {
				n++
				word &= word - 1
			}
		}
	}
	return n
}
