package font

// FontTables is the read-only surface the shaping engine consumes from a
// concrete font (spec §6). A real font-file parser (e.g. package
// sfntface, backed by golang.org/x/image/font/sfnt) implements this;
// parsing cmap/GSUB/GPOS/morx/... from bytes is explicitly out of scope
// for the engine itself.
type FontTables interface {
	// NominalGlyph resolves a Unicode codepoint through cmap, including
	// the Windows-symbol and Mac-Roman fallback subtables.
	NominalGlyph(cp rune) (GID, bool)
	// VariationGlyph resolves a (base, variation-selector) pair via cmap format 14.
	VariationGlyph(cp, variationSelector rune) (GID, bool)

	GlyphHAdvance(gid GID) int32
	GlyphVAdvance(gid GID) int32
	GlyphHOrigin(gid GID) (x, y int32)
	GlyphVOrigin(gid GID) (x, y int32)
	GlyphExtents(gid GID) (GlyphExtents, bool)

	// GlyphProps returns the GDEF-derived base/ligature/mark/component bits,
	// with the mark-attachment class packed into the high byte.
	GlyphProps(gid GID) uint16

	GDEF() *GDEF
	GSUB() *GSUBTable
	GPOS() *GPOSTable

	// AAT tables; nil/zero-value when absent.
	Morx() []MorxChain
	Kerx() *Kernx
	Kern() KernTable
	Trak() *Trak

	UpemX() int32 // units per em, horizontal
	UpemY() int32 // units per em, vertical

	// Axes lists the variable-font axes (fvar), in design-space units;
	// empty for a non-variable font.
	Axes() []AxisInfo
}

type AxisInfo struct {
	Tag              Tag
	Minimum, Default, Maximum float32
}

// Face wraps a FontTables provider with the caller-selected scale and
// variation instance (spec §6's Face::set_variations /
// set_points_per_em / set_pixels_per_em).
type Face struct {
	Tables FontTables

	// XScale/YScale convert font units to the caller's requested size;
	// 1.0 leaves values in font units.
	XScale, YScale float64

	Coords []VarCoord // normalized from fvar axis ranges (no avar remapping); nil for a non-variable instance

	// Ptem is the point size SetPointsPerEm was last called with, used
	// only to interpolate the 'trak' table; zero means "not set", in
	// which case trak tracking is skipped.
	Ptem float32
}

func NewFace(tables FontTables) *Face {
	return &Face{Tables: tables, XScale: 1, YScale: 1}
}

// SetPointsPerEm scales subsequent metrics queries as if the font were
// rendered at the given point size, assuming 72 points per inch and the
// font's own units-per-em.
func (f *Face) SetPointsPerEm(size float32) {
	upemX, upemY := f.Tables.UpemX(), f.Tables.UpemY()
	if upemX == 0 {
		upemX = 1000
	}
	if upemY == 0 {
		upemY = 1000
	}
	f.XScale = float64(size) / float64(upemX)
	f.YScale = float64(size) / float64(upemY)
	f.Ptem = size
}

// SetPixelsPerEm is SetPointsPerEm without the DPI normalization: x/y are
// already in the font's native unit scale, just resampled to a pixel grid.
func (f *Face) SetPixelsPerEm(x, y uint16) {
	upemX, upemY := f.Tables.UpemX(), f.Tables.UpemY()
	if upemX == 0 {
		upemX = 1000
	}
	if upemY == 0 {
		upemY = 1000
	}
	f.XScale = float64(x) / float64(upemX)
	f.YScale = float64(y) / float64(upemY)
}

// SetVariations instantiates the face at the given design-space axis
// values, normalizing through fvar's [min,default,max] to [-1,0,1] the
// way a variable font's gvar/MVAR/HVAR deltas expect (ported from the
// freetype2 algorithm, see DESIGN.md).
func (f *Face) SetVariations(variations []Variation) {
	axes := f.Tables.Axes()
	if len(axes) == 0 {
		f.Coords = nil
		return
	}
	design := make([]float32, len(axes))
	for i, a := range axes {
		design[i] = a.Default
	}
	for _, v := range variations {
		for i, a := range axes {
			if a.Tag == v.Tag {
				design[i] = v.Value
			}
		}
	}
	f.Coords = normalizeCoordinates(axes, design)
}

func normalizeCoordinates(axes []AxisInfo, design []float32) []VarCoord {
	out := make([]VarCoord, len(axes))
	for i, a := range axes {
		v := design[i]
		if v > a.Maximum {
			v = a.Maximum
		} else if v < a.Minimum {
			v = a.Minimum
		}

		var normalized float32
		switch {
		case v < a.Default && a.Minimum != a.Default:
			normalized = -(a.Default - v) / (a.Default - a.Minimum)
		case v > a.Default && a.Maximum != a.Default:
			normalized = (v - a.Default) / (a.Maximum - a.Default)
		default:
			normalized = 0
		}
		out[i] = VarCoord(roundF2Dot14(normalized))
	}
	return out
}

func roundF2Dot14(v float32) int32 {
	x := v * 16384
	if x >= 0 {
		return int32(x + 0.5)
	}
	return int32(x - 0.5)
}

func (f *Face) HScale(v int32) int32 { return int32(float64(v) * f.XScale) }
func (f *Face) VScale(v int32) int32 { return int32(float64(v) * f.YScale) }
