package font

import "testing"

type stubTables struct {
	upemX, upemY int32
	axes         []AxisInfo
	gdef         *GDEF
}

func (s stubTables) NominalGlyph(cp rune) (GID, bool)            { return GID(cp), cp != 0 }
func (s stubTables) VariationGlyph(cp, vs rune) (GID, bool)      { return 0, false }
func (s stubTables) GlyphHAdvance(gid GID) int32                 { return 0 }
func (s stubTables) GlyphVAdvance(gid GID) int32                 { return 0 }
func (s stubTables) GlyphHOrigin(gid GID) (int32, int32)         { return 0, 0 }
func (s stubTables) GlyphVOrigin(gid GID) (int32, int32)         { return 0, 0 }
func (s stubTables) GlyphExtents(gid GID) (GlyphExtents, bool)   { return GlyphExtents{}, false }
func (s stubTables) GlyphProps(gid GID) uint16                   { return 0 }
func (s stubTables) GDEF() *GDEF                                 { return s.gdef }
func (s stubTables) GSUB() *GSUBTable                            { return nil }
func (s stubTables) GPOS() *GPOSTable                            { return nil }
func (s stubTables) Morx() []MorxChain                           { return nil }
func (s stubTables) Kerx() *Kernx                                { return nil }
func (s stubTables) Kern() KernTable                             { return nil }
func (s stubTables) Trak() *Trak                                 { return nil }
func (s stubTables) UpemX() int32                                { return s.upemX }
func (s stubTables) UpemY() int32                                { return s.upemY }
func (s stubTables) Axes() []AxisInfo                            { return s.axes }

func TestSetPointsPerEmScales(t *testing.T) {
	face := NewFace(stubTables{upemX: 1000, upemY: 1000})
	face.SetPointsPerEm(12)
	if got := face.HScale(1000); got != 12 {
		t.Errorf("HScale(1000) at 12pt/1000upem = %d, want 12", got)
	}
	if face.Ptem != 12 {
		t.Errorf("Ptem = %v, want 12", face.Ptem)
	}
}

func TestSetPointsPerEmDefaultsUpemTo1000(t *testing.T) {
	face := NewFace(stubTables{})
	face.SetPointsPerEm(100)
	if got := face.HScale(1000); got != 100 {
		t.Errorf("HScale(1000) = %d, want 100 with a defaulted 1000-upem font", got)
	}
}

func TestSetVariationsNoAxesClearsCoords(t *testing.T) {
	face := NewFace(stubTables{})
	face.Coords = []VarCoord{1}
	face.SetVariations([]Variation{{Tag: NewTag("wght"), Value: 700}})
	if face.Coords != nil {
		t.Errorf("Coords = %v, want nil for a non-variable font", face.Coords)
	}
}

func TestSetVariationsNormalizesToF2Dot14(t *testing.T) {
	axes := []AxisInfo{{Tag: NewTag("wght"), Minimum: 100, Default: 400, Maximum: 900}}
	face := NewFace(stubTables{axes: axes})

	face.SetVariations([]Variation{{Tag: NewTag("wght"), Value: 400}})
	if face.Coords[0] != 0 {
		t.Errorf("default value normalized to %d, want 0", face.Coords[0])
	}

	face.SetVariations([]Variation{{Tag: NewTag("wght"), Value: 900}})
	if face.Coords[0] != 1<<14 {
		t.Errorf("max value normalized to %d, want %d", face.Coords[0], 1<<14)
	}

	face.SetVariations([]Variation{{Tag: NewTag("wght"), Value: 1200}})
	if face.Coords[0] != 1<<14 {
		t.Errorf("out-of-range value not clamped to max: got %d", face.Coords[0])
	}

	face.SetVariations(nil)
	if face.Coords[0] != 0 {
		t.Errorf("omitted axis not reset to its default: got %d", face.Coords[0])
	}
}

func TestGDEFGlyphPropsNilSafe(t *testing.T) {
	var gdef *GDEF
	if got := gdef.GlyphProps(5); got != 0 {
		t.Errorf("nil *GDEF.GlyphProps = %d, want 0", got)
	}
	if got := gdef.MarkAttachmentClass(5); got != 0 {
		t.Errorf("nil *GDEF.MarkAttachmentClass = %d, want 0", got)
	}
}

func TestGDEFGlyphPropsClassBits(t *testing.T) {
	gdef := &GDEF{GlyphClass: ClassDefList{StartGlyph: 0, Classes: []uint16{1, 2, 3, 4}}}
	cases := []struct {
		gid  GID
		want uint16
	}{
		{0, GlyphClassBase},
		{1, GlyphClassLigature},
		{2, GlyphClassMark},
		{3, GlyphClassComponent},
	}
	for _, c := range cases {
		if got := gdef.GlyphProps(c.gid); got != c.want {
			t.Errorf("GlyphProps(%d) = %#x, want %#x", c.gid, got, c.want)
		}
	}
}
