package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// A precomposed Hangul syllable the font's cmap does not cover gets split
// into its L/V/T jamo (Unicode §3.12 arithmetic decomposition) rather than
// going through the general normalizer's canonical-decomposition table.
func TestShapeHangulSyllableDecomposesWhenUncovered(t *testing.T) {
	const syllable = 0xAC00 // precomposed HANGUL SYLLABLE GA (L=0x1100, V=0x1161, no T)

	f := newFakeFace()
	f.mapIdentity(0x1100, 300) // HANGUL CHOSEONG KIYEOK
	f.mapIdentity(0x1161, 250) // HANGUL JUNGSEONG A
	// syllable itself deliberately left unmapped

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(syllable, 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptHangul)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs (L, V jamo), got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(0x1100) {
		t.Errorf("glyph[0] = %v, want the leading consonant jamo", infos[0].Glyph)
	}
	if infos[1].Glyph != font.GID(0x1161) {
		t.Errorf("glyph[1] = %v, want the vowel jamo", infos[1].Glyph)
	}
}

// A font that covers the precomposed syllable directly keeps it whole.
func TestShapeHangulSyllableKeptWhenCovered(t *testing.T) {
	const syllable = 0xAC00

	f := newFakeFace()
	f.mapIdentity(syllable, 900)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(syllable, 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptHangul)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("want 1 glyph, got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(syllable) {
		t.Errorf("glyph[0] = %v, want the untouched precomposed syllable", infos[0].Glyph)
	}
}
