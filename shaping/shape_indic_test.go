package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Spec §8 scenario 3: Devanagari "कि" (KA U+0915 + vowel sign I U+093F)
// reorders the pre-base matra ahead of its consonant and merges both
// glyphs' clusters to the syllable's start.
func TestShapeIndicPreBaseMatraReorder(t *testing.T) {
	const ka, vowelI = 0x0915, 0x093F

	f := newFakeFace()
	f.mapIdentity(ka, 600)
	f.mapIdentity(vowelI, 300)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(ka, 0)
	buf.Add(vowelI, 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptDevanagari)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs, got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(vowelI) {
		t.Errorf("glyph[0] = %v, want the reordered vowel sign", infos[0].Glyph)
	}
	if infos[1].Glyph != font.GID(ka) {
		t.Errorf("glyph[1] = %v, want KA following it", infos[1].Glyph)
	}
	if infos[0].Cluster != 0 || infos[1].Cluster != 0 {
		t.Errorf("clusters = [%d, %d], want both merged to 0", infos[0].Cluster, infos[1].Cluster)
	}
}
