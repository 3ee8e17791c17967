// Package sfntface adapts golang.org/x/image/font/sfnt's parsed SFNT
// fonts to the font.FontTables interface the shaping engine consumes,
// the way the teacher's own font package bridges a different parser to
// its typesetting engine. It covers cmap lookup, horizontal/vertical
// advances, and glyph ink extents; it does not parse GSUB/GPOS or the
// AAT tables, so a Face built over it drives the engine's cmap-only and
// legacy-kern fallback paths rather than the full apply engine. Tests
// that exercise GSUB/GPOS build hand-written font.FontTables fixtures
// directly instead (see the shaping package's own tests).
package sfntface

import (
	"io"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/inkwell/shaping/font"
)

// Face wraps a parsed *sfnt.Font as a font.FontTables. The zero value is
// not usable; build one with New.
type Face struct {
	font *sfnt.Font
	upem fixed.Int26_6 // UnitsPerEm expressed as a ppem, so advance/bounds queries return raw font units

	mu  sync.Mutex
	buf sfnt.Buffer // sfnt.Buffer is scratch space, not safe for concurrent use
}

var _ font.FontTables = (*Face)(nil)

// New parses an SFNT font (TrueType or CFF-flavored OpenType) from src.
func New(src []byte) (*Face, error) {
	f, err := sfnt.Parse(src)
	if err != nil {
		return nil, err
	}
	return newFace(f), nil
}

// NewFromReader parses an SFNT font from an io.ReaderAt, such as an
// os.File, without requiring the whole file in memory up front.
func NewFromReader(r io.ReaderAt) (*Face, error) {
	f, err := sfnt.ParseReaderAt(r)
	if err != nil {
		return nil, err
	}
	return newFace(f), nil
}

func newFace(f *sfnt.Font) *Face {
	face := &Face{font: f}
	face.upem = fixed.Int26_6(f.UnitsPerEm()) << 6
	return face
}

func (f *Face) NominalGlyph(cp rune) (font.GID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gi, err := f.font.GlyphIndex(&f.buf, cp)
	if err != nil || gi == 0 {
		return 0, false
	}
	return font.GID(gi), true
}

// VariationGlyph is unimplemented: golang.org/x/image/font/sfnt does not
// expose cmap format 14 (Unicode variation sequence) lookups.
func (f *Face) VariationGlyph(cp, vs rune) (font.GID, bool) { return 0, false }

func (f *Face) GlyphHAdvance(gid font.GID) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	adv, err := f.font.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), f.upem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return int32(adv.Round())
}

// GlyphVAdvance falls back to the font's ascent+descent (the typical
// vertical advance for a monospaced vertical layout) since sfnt does not
// expose vhea/vmtx directly; a font actually requiring per-glyph vertical
// metrics should come from a richer adapter.
func (f *Face) GlyphVAdvance(gid font.GID) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	metrics, err := f.font.Metrics(&f.buf, f.upem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return int32((metrics.Ascent + metrics.Descent).Round())
}

func (f *Face) GlyphHOrigin(gid font.GID) (int32, int32) { return 0, 0 }
func (f *Face) GlyphVOrigin(gid font.GID) (int32, int32) { return 0, 0 }

// GlyphExtents reports the glyph's ink bounding box in font units,
// flipping sfnt's downward-positive Y axis back to the upward-positive
// convention the rest of the engine uses (spec's bearingY/height pair,
// mirroring freetype's FT_Glyph_Metrics).
func (f *Face) GlyphExtents(gid font.GID) (font.GlyphExtents, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := f.font.GlyphBounds(&f.buf, sfnt.GlyphIndex(gid), f.upem, xfont.HintingNone)
	if err != nil {
		return font.GlyphExtents{}, false
	}
	xBearing := int32(b.Min.X.Round())
	width := int32((b.Max.X - b.Min.X).Round())
	yBearing := int32(-b.Min.Y.Round())
	height := int32((b.Min.Y - b.Max.Y).Round())
	return font.GlyphExtents{XBearing: xBearing, YBearing: yBearing, Width: width, Height: height}, true
}

// GlyphProps always reports 0: GDEF is not parsed by this adapter, so
// the engine falls back to synthesizing glyph classes from GSUB/GPOS
// touch points (see shaping.synthesizeGlyphClasses).
func (f *Face) GlyphProps(gid font.GID) uint16 { return 0 }

func (f *Face) GDEF() *font.GDEF      { return nil }
func (f *Face) GSUB() *font.GSUBTable { return nil }
func (f *Face) GPOS() *font.GPOSTable { return nil }

func (f *Face) Morx() []font.MorxChain { return nil }
func (f *Face) Kerx() *font.Kernx      { return nil }
func (f *Face) Kern() font.KernTable   { return nil }
func (f *Face) Trak() *font.Trak       { return nil }

func (f *Face) UpemX() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int32(f.upem >> 6)
}
func (f *Face) UpemY() int32 { return f.UpemX() }

// Axes reports no variable-font axes: this adapter always instantiates
// the font at its default (fvar-less) outline.
func (f *Face) Axes() []font.AxisInfo { return nil }
