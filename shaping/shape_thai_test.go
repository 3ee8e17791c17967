package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Thai SARA E (a leading vowel, U+0E40) encoded before its consonant gets
// swapped back after it, matching pronunciation order, before GPOS mark
// attachment runs.
func TestShapeThaiLeadingVowelSwap(t *testing.T) {
	const saraE, koKai = 0x0E40, 0x0E01

	f := newFakeFace()
	f.mapIdentity(saraE, 200)
	f.mapIdentity(koKai, 500)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(saraE, 0)
	buf.Add(koKai, 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptThai)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs, got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(koKai) {
		t.Errorf("glyph[0] = %v, want the consonant swapped to the front", infos[0].Glyph)
	}
	if infos[1].Glyph != font.GID(saraE) {
		t.Errorf("glyph[1] = %v, want the leading vowel swapped after it", infos[1].Glyph)
	}
}

// Two ordinary consonants in a row are left untouched.
func TestShapeThaiNoSwapForPlainConsonants(t *testing.T) {
	const koKai, khoKhai = 0x0E01, 0x0E02

	f := newFakeFace()
	f.mapIdentity(koKai, 500)
	f.mapIdentity(khoKhai, 500)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(koKai, 0)
	buf.Add(khoKhai, 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptThai)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	if len(infos) != 2 || infos[0].Glyph != font.GID(koKai) || infos[1].Glyph != font.GID(khoKhai) {
		t.Errorf("got %+v, want unchanged order [koKai, khoKhai]", infos)
	}
}
