package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

// Serialize's golden-string format: gid=cluster+advance, glyphs separated
// by '|', with no explicit offset/mask printed when both are zero/unset.
func TestSerializeBasicFormat(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity('A', 500)
	f.mapIdentity('B', 600)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('A', 0)
	buf.Add('B', 1)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if out.Failed() {
		t.Fatal("shaping failed")
	}
	got := out.Serialize(face, 0)
	want := "gid65=0+500|gid66=1+600"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

// SerializeNoClusters/SerializeNoAdvances strip their respective fields.
func TestSerializeFlagsSuppressFields(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity('A', 500)

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('A', 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	if got, want := out.Serialize(face, SerializeNoClusters), "gid65+500"; got != want {
		t.Errorf("Serialize(NoClusters) = %q, want %q", got, want)
	}
	if got, want := out.Serialize(face, SerializeNoAdvances), "gid65=0"; got != want {
		t.Errorf("Serialize(NoAdvances) = %q, want %q", got, want)
	}
}

// SerializeGlyphExtents appends the glyph's ink bounding box only when
// requested, and only when the face actually reports extents for it.
func TestSerializeGlyphExtents(t *testing.T) {
	f := newFakeFace()
	f.mapIdentity('A', 500)
	f.extents[font.GID('A')] = font.GlyphExtents{XBearing: 10, YBearing: 400, Width: 480, Height: -400}

	face := buildFace(f)
	buf := NewBuffer()
	buf.Add('A', 0)
	buf.SetDirection(font.LeftToRight)
	buf.SetScript(font.ScriptLatin)

	out := Shape(face, nil, buf)
	got := out.Serialize(face, SerializeGlyphExtents)
	want := "gid65=0+500<10,400,480,-400>"
	if got != want {
		t.Errorf("Serialize(GlyphExtents) = %q, want %q", got, want)
	}
}
