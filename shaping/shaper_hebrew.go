package shaping

import "github.com/inkwell/shaping/unicodedata"

// Hebrew presentation-form compositions the normalizer's generic
// canonical-composition table (NFC) doesn't cover, since they're
// formally "compatibility" pairings rather than canonical ones: letter
// plus dagesh/point combinations that many older Hebrew fonts only carry
// as a single precomposed glyph (spec §4.7 "Hebrew").
var hebrewCompositions = map[[2]rune]rune{
	{0x05D1, 0x05BC}: 0xFB31, // BET + DAGESH
	{0x05DB, 0x05BC}: 0xFB3B, // KAF + DAGESH
	{0x05E4, 0x05BC}: 0xFB44, // PE + DAGESH
	{0x05E9, 0x05C1}: 0xFB2A, // SHIN + SHIN DOT
	{0x05E9, 0x05C2}: 0xFB2B, // SHIN + SIN DOT
}

// complexShaperHebrew recognizes a handful of presentation-form
// ligatures: letter+point pairs a font without GPOS mark attachment can
// only render as a single precomposed glyph. A GPOS-capable font usually
// still has these glyphs mapped too (Unicode defines them), so composing
// unconditionally is harmless; the point is covering fonts that have no
// other way to place the dagesh/dot at all.
type complexShaperHebrew struct {
	complexShaperDefault
}

func (complexShaperHebrew) compose(u unicodedata.Provider, a, b rune) (rune, bool) {
	if c, ok := hebrewCompositions[[2]rune{a, b}]; ok {
		return c, true
	}
	return u.Compose(a, b)
}

func (complexShaperHebrew) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, true
}
