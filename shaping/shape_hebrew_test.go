package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// BET (U+05D1) followed by DAGESH (U+05BC) composes to the precomposed
// presentation form U+FB31 when the font maps that glyph directly, a
// compatibility pairing the generic NFC composition table doesn't cover.
func TestShapeHebrewDageshComposition(t *testing.T) {
	const bet, dagesh, betDagesh = 0x05D1, 0x05BC, 0xFB31

	f := newFakeFace()
	f.mapIdentity(bet, 400)
	f.mapIdentity(dagesh, 0)
	f.mapIdentity(betDagesh, 450)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(bet, 0)
	buf.Add(dagesh, 1)
	buf.SetDirection(font.RightToLeft)
	buf.SetScript(font.ScriptHebrew)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("want 1 glyph (the composed presentation form), got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(betDagesh) {
		t.Errorf("glyph[0] = %v, want the precomposed BET+DAGESH %v", infos[0].Glyph, font.GID(betDagesh))
	}
	if infos[0].Cluster != 0 {
		t.Errorf("cluster = %d, want 0", infos[0].Cluster)
	}
}

// Without a font glyph for the precomposed form, the pair is left
// uncomposed: composeBuffer only merges when the result is actually
// mappable.
func TestShapeHebrewDageshNoCompositionWithoutGlyph(t *testing.T) {
	const bet, dagesh = 0x05D1, 0x05BC

	f := newFakeFace()
	f.mapIdentity(bet, 400)
	f.mapIdentity(dagesh, 0)
	// betDagesh deliberately left unmapped

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(bet, 0)
	buf.Add(dagesh, 1)
	buf.SetDirection(font.RightToLeft)
	buf.SetScript(font.ScriptHebrew)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs (left uncomposed), got %d: %+v", len(infos), infos)
	}
}
