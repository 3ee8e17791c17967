package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Spec §8 scenario 4 / "Broken-cluster handling": a syllable with no base
// consonant (here, a lone COENG with nothing to attach to) is tagged
// broken, and a dotted circle is spliced in front of it so the run still
// renders something visible instead of silently vanishing.
func TestShapeKhmerBrokenClusterDottedCircle(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity(0x17D2, 0) // KHMER SIGN COENG, this script's virama
	f.mapIdentity(0x25CC, 400) // dotted circle

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(0x17D2, 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptKhmer)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs (dotted circle, coeng), got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(0x25CC) {
		t.Errorf("glyph[0] = %v, want the inserted dotted circle", infos[0].Glyph)
	}
	if infos[1].Glyph != font.GID(0x17D2) {
		t.Errorf("glyph[1] = %v, want the untouched coeng", infos[1].Glyph)
	}
	if infos[0].Cluster != infos[1].Cluster {
		t.Errorf("dotted circle cluster %d != coeng cluster %d, want them to share the broken syllable's cluster", infos[0].Cluster, infos[1].Cluster)
	}
}

// A well-formed consonant-only syllable never gets a dotted circle.
func TestShapeKhmerWellFormedSyllableNoDottedCircle(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity(0x1780, 500) // KA, a plain Khmer consonant
	f.mapIdentity(0x25CC, 400)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(0x1780, 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptKhmer)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("want 1 glyph, got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(0x1780) {
		t.Errorf("glyph[0] = %v, want the untouched consonant", infos[0].Glyph)
	}
}
