package shaping

import "github.com/inkwell/shaping/font"

// fakeFace is a minimal, hand-built font.FontTables fixture for exercising
// the apply engine without a real font parser (the engine's own tests
// take the same approach the teacher's harfbuzz/*_test.go files do: build
// in-memory tables.Layout fixtures instead of shipping binary fonts; see
// DESIGN.md, package sfntface's doc comment).
//
// Its cmap is the identity map restricted to cmap: GID(cp) for every cp in
// the set, so test input strings can be written as plain runes and their
// initial glyph ids read straight off as their codepoints.
type fakeFace struct {
	cmap     map[rune]font.GID
	hAdvance map[font.GID]int32
	vAdvance map[font.GID]int32
	extents  map[font.GID]font.GlyphExtents
	props    map[font.GID]uint16

	gdef *font.GDEF
	gsub *font.GSUBTable
	gpos *font.GPOSTable
	morx []font.MorxChain
	kerx *font.Kernx
	kern font.KernTable
	trak *font.Trak

	upemX, upemY int32
	axes         []font.AxisInfo
}

func newFakeFace() *fakeFace {
	return &fakeFace{
		cmap:     map[rune]font.GID{},
		hAdvance: map[font.GID]int32{},
		vAdvance: map[font.GID]int32{},
		extents:  map[font.GID]font.GlyphExtents{},
		props:    map[font.GID]uint16{},
		upemX:    1000,
		upemY:    1000,
	}
}

// mapIdentity registers cp -> GID(cp) with the given advance, the
// common case for test fixtures that don't care about a distinct glyph
// numbering space.
func (f *fakeFace) mapIdentity(cp rune, advance int32) {
	f.cmap[cp] = font.GID(cp)
	f.hAdvance[font.GID(cp)] = advance
	f.vAdvance[font.GID(cp)] = advance
}

func (f *fakeFace) NominalGlyph(cp rune) (font.GID, bool) {
	gid, ok := f.cmap[cp]
	return gid, ok
}
func (f *fakeFace) VariationGlyph(cp, vs rune) (font.GID, bool) { return 0, false }

func (f *fakeFace) GlyphHAdvance(gid font.GID) int32 { return f.hAdvance[gid] }
func (f *fakeFace) GlyphVAdvance(gid font.GID) int32 { return f.vAdvance[gid] }
func (f *fakeFace) GlyphHOrigin(gid font.GID) (int32, int32) { return 0, 0 }
func (f *fakeFace) GlyphVOrigin(gid font.GID) (int32, int32) { return 0, 0 }
func (f *fakeFace) GlyphExtents(gid font.GID) (font.GlyphExtents, bool) {
	e, ok := f.extents[gid]
	return e, ok
}
func (f *fakeFace) GlyphProps(gid font.GID) uint16 { return f.props[gid] }

func (f *fakeFace) GDEF() *font.GDEF          { return f.gdef }
func (f *fakeFace) GSUB() *font.GSUBTable     { return f.gsub }
func (f *fakeFace) GPOS() *font.GPOSTable     { return f.gpos }
func (f *fakeFace) Morx() []font.MorxChain    { return f.morx }
func (f *fakeFace) Kerx() *font.Kernx         { return f.kerx }
func (f *fakeFace) Kern() font.KernTable      { return f.kern }
func (f *fakeFace) Trak() *font.Trak          { return f.trak }

func (f *fakeFace) UpemX() int32 { return f.upemX }
func (f *fakeFace) UpemY() int32 { return f.upemY }

func (f *fakeFace) Axes() []font.AxisInfo { return f.axes }

// defaultScriptLayout builds the smallest Layout that makes a single
// feature tag active under the DFLT script/language selection path
// (otmap.go's selectScript tries the run's own script tag, then "DFLT",
// then "dflt"; DFLT with no explicit script record match is what every
// fixture here relies on since test fonts don't bother with real script
// tables).
func defaultScriptLayout(features []font.FeatureRecord, lookups []font.Lookup) font.Layout {
	indices := make([]uint16, len(features))
	for i := range features {
		indices[i] = uint16(i)
	}
	return font.Layout{
		Scripts: []font.ScriptRecord{{
			Tag:        font.NewTag("DFLT"),
			HasDefault: true,
			DefaultLang: font.LangSys{
				RequiredFeatureIndex: 0xFFFF,
				FeatureIndices:       indices,
			},
		}},
		Features: features,
		Lookups:  lookups,
	}
}

func buildFace(f *fakeFace) *font.Face {
	return font.NewFace(f)
}

// mapClassDef is a trivial font.ClassDef fixture keyed by glyph id
// directly, for fixtures that only need a handful of sparse classes
// (a real font would use font.ClassDefList/ClassDefRanges instead).
type mapClassDef map[font.GID]uint16

func (m mapClassDef) Class(gid font.GID) uint16 { return m[gid] }
