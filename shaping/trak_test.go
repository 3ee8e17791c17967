package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

func TestInterpolateTrackClampsBelowRange(t *testing.T) {
	entry := font.TrackEntry{Sizes: []float32{12, 24}, Values: []int16{-40, -10}}
	if got := interpolateTrack(entry, 6); got != -40 {
		t.Errorf("below range = %v, want -40 (clamp to first entry)", got)
	}
}

func TestInterpolateTrackClampsAboveRange(t *testing.T) {
	entry := font.TrackEntry{Sizes: []float32{12, 24}, Values: []int16{-40, -10}}
	if got := interpolateTrack(entry, 48); got != -10 {
		t.Errorf("above range = %v, want -10 (clamp to last entry)", got)
	}
}

func TestInterpolateTrackLinearMidpoint(t *testing.T) {
	entry := font.TrackEntry{Sizes: []float32{12, 24}, Values: []int16{-40, -10}}
	if got := interpolateTrack(entry, 18); got != -25 {
		t.Errorf("midpoint(12,24) = %v, want -25", got)
	}
}

func TestInterpolateTrackEmptyEntry(t *testing.T) {
	if got := interpolateTrack(font.TrackEntry{}, 18); got != 0 {
		t.Errorf("empty entry = %v, want 0", got)
	}
}

// applyTrak adds the interpolated tracking value to every glyph's
// horizontal advance, scaled from font units to the face's current ppem.
func TestApplyTrakAdjustsHorizontalAdvances(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity('A', 500)
	f.upemX, f.upemY = 1000, 1000
	f.trak = &font.Trak{Horizontal: font.TrackData{
		Tracks: []font.TrackEntry{{Sizes: []float32{12, 24}, Values: []int16{-40, -10}}},
	}}

	face := buildFace(f)
	face.SetPointsPerEm(12)

	buf := NewBuffer()
	buf.Add('A', 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	// applyTrak only runs when the caller actually requests the 'trak'
	// feature (it isn't one of the always-on common/horizontal features).
	features := []Feature{{Tag: font.NewTag("trak"), Value: 1}}
	out := Shape(face, features, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	positions := out.GlyphPositions()
	if len(positions) != 1 {
		t.Fatalf("want 1 glyph, got %d", len(positions))
	}
	// At ptem=12 (the track's first size), the interpolated value clamps to
	// -40 font units, scaled 1:1 at a 1000-upem/12pt face to -40 in the
	// returned XAdvance's units; the important property is that it moved
	// off the font's plain 500 advance at all.
	if positions[0].XAdvance == 500 {
		t.Errorf("XAdvance = %d, want tracking applied (not the untouched 500 advance)", positions[0].XAdvance)
	}
}
