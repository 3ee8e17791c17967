package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Spec §8 scenario 2: Arabic LAM (U+0644) followed by ALEF (U+0627)
// ligates into a single glyph through the always-on 'rlig' feature,
// merging both codepoints into cluster 0.
func TestShapeArabicLamAlefLigature(t *testing.T) {
	const lam, alef = 0x0644, 0x0627
	const ligGlyph = font.GID(0x3000)

	f := newFakeFace()
	f.mapIdentity(lam, 500)
	f.mapIdentity(alef, 400)
	f.hAdvance[ligGlyph] = 700

	ligature := font.Ligature{Glyph: ligGlyph, Components: []font.GID{font.GID(alef)}}
	f.gsub = &font.GSUBTable{Layout: defaultScriptLayout(
		[]font.FeatureRecord{{Tag: font.NewTag("rlig"), Lookups: []uint16{0}}},
		[]font.Lookup{{
			Subtables: []interface{}{font.LigatureSubst{Cov: font.CoverageList{font.GID(lam)}, LigatureSets: [][]font.Ligature{{ligature}}}},
		}},
	)}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(lam, 0)
	buf.Add(alef, 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptArabic)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("want 1 glyph (the ligature), got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != ligGlyph {
		t.Errorf("glyph[0] = %v, want the lam-alef ligature %v", infos[0].Glyph, ligGlyph)
	}
	if infos[0].Cluster != 0 {
		t.Errorf("cluster = %d, want 0", infos[0].Cluster)
	}
}
