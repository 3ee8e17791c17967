package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// A non-contextual morx subtable substitutes glyphs unconditionally, no
// state-machine transitions needed, grounded on shaper_default picking
// applyMorx whenever a horizontal face carries a morx table.
func TestShapeMorxNonContextualSubstitution(t *testing.T) {
	const smallA, capA = 'a', 'A'

	f := newFakeFace()
	f.mapIdentity(smallA, 400)
	f.hAdvance[font.GID(capA)] = 600

	f.morx = []font.MorxChain{{Subtables: []font.MorxSubtable{{
		Kind:          font.MorxNonContextual,
		NonContextual: font.MorxNonContextualData{Substitution: map[font.GID]font.GID{font.GID(smallA): font.GID(capA)}},
	}}}}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add(smallA, 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	infos := out.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("want 1 glyph, got %d: %+v", len(infos), infos)
	}
	if infos[0].Glyph != font.GID(capA) {
		t.Errorf("glyph[0] = %v, want the substituted capital A", infos[0].Glyph)
	}
}

// A 2-state kerx format 1 machine adds its stacked kerning value between
// two glyphs reaching the marked state.
func TestShapeKerxFormat1Kerning(t *testing.T) {
	const glyphX, glyphY = font.GID('X'), font.GID('Y')

	f := newFakeFace()
	f.mapIdentity('X', 500)
	f.mapIdentity('Y', 500)

	// Payload 0 always means "no kerning" (Values[0] == 0); every
	// transition entry left at its zero value harmlessly applies a
	// zero-valued kern. Only the state1+glyphY transition uses Payload 1,
	// the real -50 value.
	classOf := func(g font.GID) uint16 {
		switch g {
		case glyphX:
			return 2
		case glyphY:
			return 3
		default:
			return font.AATClassOutOfBounds
		}
	}
	machine := font.AATStateTable{
		NumStates: 2,
		ClassOf:   classOf,
		NClasses:  4,
		Entries: [][]font.AATStateEntry{
			{{NewState: 0}, {NewState: 0}, {NewState: 1, Flags: font.AATFlagSetMark}, {NewState: 0}},
			{{NewState: 0}, {NewState: 0}, {NewState: 1, Flags: font.AATFlagSetMark}, {NewState: 0, Payload: 1}},
		},
	}
	f.kerx = &font.Kernx{Subtables: []font.KernSubtable{{
		Kind:    font.KerxFormat1,
		Format1: font.KerxFormat1Data{Machine: machine, Values: []int16{0, -50}},
	}}}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('X', 0)
	buf.Add('Y', 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	positions := out.GlyphPositions()
	if len(positions) != 2 {
		t.Fatalf("want 2 glyphs, got %d", len(positions))
	}
	if positions[0].XAdvance != 450 {
		t.Errorf("XAdvance[0] = %d, want 500-50=450 after kerx format 1 adjustment", positions[0].XAdvance)
	}
}
