package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Spec §8 scenario 5 / "Ligature component accounting": a GSUB Ligature
// lookup flagged IGNORE_MARKS skips a combining mark sitting between the
// ligature's two components while matching, then relabels it with the
// ligature's lig_id and a component index in [1, num_components] so
// later mark positioning can still find the right anchor point on the
// ligature (spec §4.5's "single most intricate piece of bookkeeping").
func TestShapeLigatureMarkReattach(t *testing.T) {
	const ligGlyph = font.GID(0x2000)

	f := newFakeFace()
	f.mapIdentity('f', 500)
	f.mapIdentity('i', 300)
	f.mapIdentity('́', 0) // combining acute accent
	f.hAdvance[ligGlyph] = 700

	f.gdef = &font.GDEF{
		GlyphClass: mapClassDef{font.GID('́'): 3, ligGlyph: 2}, // GDEF class 3 = mark, 2 = ligature
	}

	ligature := font.Ligature{Glyph: ligGlyph, Components: []font.GID{font.GID('i')}}
	f.gsub = &font.GSUBTable{Layout: defaultScriptLayout(
		[]font.FeatureRecord{{Tag: font.NewTag("liga"), Lookups: []uint16{0}}},
		[]font.Lookup{{
			Flag:      font.LookupIgnoreMarks,
			Subtables: []interface{}{font.LigatureSubst{Cov: font.CoverageList{font.GID('f')}, LigatureSets: [][]font.Ligature{{ligature}}}},
		}},
	)}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('f', 0)
	buf.Add('́', 1)
	buf.Add('i', 2)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 2 {
		t.Fatalf("want 2 glyphs (ligature, mark), got %d: %+v", len(infos), infos)
	}
	lig, mark := infos[0], infos[1]
	if lig.Glyph != ligGlyph {
		t.Fatalf("glyph[0] = %v, want the ligature glyph %v", lig.Glyph, ligGlyph)
	}
	if mark.Glyph != font.GID('́') {
		t.Fatalf("glyph[1] = %v, want the untouched mark", mark.Glyph)
	}

	ligID := lig.getLigID()
	if ligID == 0 {
		t.Fatal("ligature glyph carries no lig_id")
	}
	if mark.getLigID() != ligID {
		t.Errorf("mark lig_id = %d, want %d (the ligature's)", mark.getLigID(), ligID)
	}
	numComps := lig.getLigNumComps()
	if numComps != 2 {
		t.Fatalf("ligature num_components = %d, want 2", numComps)
	}
	if comp := mark.getLigComp(); comp < 1 || comp > numComps {
		t.Errorf("mark lig_comp = %d, want in [1, %d]", comp, numComps)
	}
}

// Spec §8 "unsafe_to_break soundness": a contextual substitution A B -> A'
// B' stamps UNSAFE_TO_BREAK on both glyphs once it fires, but leaves an
// unrelated run untouched.
func TestShapeUnsafeToBreakContext(t *testing.T) {
	build := func() (*font.Face, *fakeFace) {
		f := newFakeFace()
		f.mapIdentity('A', 500)
		f.mapIdentity('B', 500)
		f.mapIdentity('X', 500)
		f.cmap[rune(0x2100)] = 0x2100 // A'
		f.hAdvance[0x2100] = 500
		f.cmap[rune(0x2101)] = 0x2101 // B'
		f.hAdvance[0x2101] = 500

		ctx := font.SequenceContext1{
			Cov: font.CoverageList{font.GID('A')},
			RuleSets: []font.SequenceRuleSet{{
				{
					Input: []font.GID{font.GID('B')},
					LookupRecord: []font.SequenceLookupRecord{
						{SequenceIndex: 0, LookupListIndex: 1},
						{SequenceIndex: 1, LookupListIndex: 2},
					},
				},
			}},
		}
		f.gsub = &font.GSUBTable{Layout: defaultScriptLayout(
			[]font.FeatureRecord{{Tag: font.NewTag("calt"), Lookups: []uint16{0}}},
			[]font.Lookup{
				{Subtables: []interface{}{ctx}},
				{Subtables: []interface{}{font.SingleSubst1{Cov: font.CoverageList{font.GID('A')}, Delta: int16(0x2100 - int('A'))}}},
				{Subtables: []interface{}{font.SingleSubst1{Cov: font.CoverageList{font.GID('B')}, Delta: int16(0x2101 - int('B'))}}},
			},
		)}
		return buildFace(f), f
	}

	t.Run("no match stays safe", func(t *testing.T) {
		face, _ := build()
		buf := NewBuffer()
		buf.Add('A', 0)
		buf.Add('X', 1)
		buf.Add('B', 2)
		buf.SetDirection(font.LeftToRight)
		buf.SetScript(font.ScriptLatin)
		out := Shape(face, nil, buf)
		for i, info := range out.GlyphInfos() {
			if info.Mask&MaskUnsafeToBreak != 0 {
				t.Errorf("glyph[%d] unexpectedly marked unsafe to break", i)
			}
		}
	})

	t.Run("match marks both glyphs unsafe", func(t *testing.T) {
		face, _ := build()
		buf := NewBuffer()
		buf.Add('A', 0)
		buf.Add('B', 1)
		buf.SetDirection(font.LeftToRight)
		buf.SetScript(font.ScriptLatin)
		out := Shape(face, nil, buf)
		infos := out.GlyphInfos()
		if len(infos) != 2 {
			t.Fatalf("want 2 glyphs, got %d", len(infos))
		}
		if infos[0].Glyph != 0x2100 || infos[1].Glyph != 0x2101 {
			t.Fatalf("contextual substitution did not fire: got %+v", infos)
		}
		for i, info := range infos {
			if info.Mask&MaskUnsafeToBreak == 0 {
				t.Errorf("glyph[%d] should be marked unsafe to break", i)
			}
		}
	})
}
