package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Spec §8 scenario 1: Latin kern. A font with a 'kern' GPOS pair for
// (A, V); shaping "AV" should shrink A's advance by the kern amount and
// leave V untouched.
func TestShapeLatinKernPair(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity('A', 600)
	f.mapIdentity('V', 550)

	pairPos := font.PairPos1{
		Cov: font.CoverageList{font.GID('A')},
		PairSets: [][]font.PairValueRecord{
			{{SecondGlyph: font.GID('V'), Value1: font.ValueRecord{XAdvance: -80}}},
		},
	}
	f.gpos = &font.GPOSTable{Layout: defaultScriptLayout(
		[]font.FeatureRecord{{Tag: font.NewTag("kern"), Lookups: []uint16{0}}},
		[]font.Lookup{{Subtables: []interface{}{pairPos}}},
	)}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('A', 0)
	buf.Add('V', 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	positions := out.GlyphPositions()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs, got %d", len(infos))
	}
	if positions[0].XAdvance != 600-80 {
		t.Errorf("A advance = %d, want %d", positions[0].XAdvance, 600-80)
	}
	if positions[1].XAdvance != 550 {
		t.Errorf("V advance = %d, want unchanged 550", positions[1].XAdvance)
	}
}

// Spec §8 invariant: roundtrip-identity on ASCII-only Latin without
// features. With an identity cmap and no GSUB/GPOS, the output glyph ids
// equal cmap(input) and advances equal hmtx.
func TestShapeLatinRoundtripIdentity(t *testing.T) {
	f := newFakeFace()
	for _, r := range "abc" {
		f.mapIdentity(r, 500)
	}
	face := buildFace(f)
	buf := NewBuffer()
	buf.AddString("abc")
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	positions := out.GlyphPositions()
	if len(infos) != 3 {
		t.Fatalf("want 3 glyphs, got %d", len(infos))
	}
	for i, r := range []rune("abc") {
		if infos[i].Glyph != font.GID(r) {
			t.Errorf("glyph[%d] = %d, want %d", i, infos[i].Glyph, r)
		}
		if infos[i].Cluster != i {
			t.Errorf("cluster[%d] = %d, want %d", i, infos[i].Cluster, i)
		}
		if positions[i].XAdvance != 500 {
			t.Errorf("advance[%d] = %d, want 500", i, positions[i].XAdvance)
		}
	}
}

// Cluster monotonicity (spec §8): for plain unsegmented LTR Latin text,
// clusters never decrease.
func TestShapeClusterMonotonicityLTR(t *testing.T) {
	f := newFakeFace()
	for _, r := range "hello" {
		f.mapIdentity(r, 500)
	}
	face := buildFace(f)
	buf := NewBuffer()
	buf.AddString("hello")
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	infos := out.GlyphInfos()
	for i := 1; i < len(infos); i++ {
		if infos[i].Cluster < infos[i-1].Cluster {
			t.Fatalf("cluster decreased at %d: %d -> %d", i, infos[i-1].Cluster, infos[i].Cluster)
		}
	}
}
