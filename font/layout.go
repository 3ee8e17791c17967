package font

// LookupFlag holds the low 16 bits of a lookup's flags (ignore rules),
// plus, in the high 16 bits when UseMarkFilteringSet is set, the index of
// a GDEF mark glyph set used to filter marks (see spec §4.4).
type LookupFlag uint32

const (
	LookupRightToLeft          LookupFlag = 0x0001
	LookupIgnoreBaseGlyphs     LookupFlag = 0x0002
	LookupIgnoreLigatures      LookupFlag = 0x0004
	LookupIgnoreMarks          LookupFlag = 0x0008
	LookupUseMarkFilteringSet  LookupFlag = 0x0010
	LookupMarkAttachTypeMask   LookupFlag = 0xFF00
	LookupIgnoreFlags                     = LookupIgnoreBaseGlyphs | LookupIgnoreLigatures | LookupIgnoreMarks
)

// MarkFilteringSet extracts the mark-glyph-set index stored in the high
// 16 bits when LookupUseMarkFilteringSet is set.
func (f LookupFlag) MarkFilteringSet() uint16 { return uint16(f >> 16) }

// GDEF glyph-class bits, OR'd into GlyphInfo's internal glyph-properties
// byte alongside the derived substituted/ligated/multiplied bits.
const (
	GlyphClassBase      uint16 = 0x02
	GlyphClassLigature  uint16 = 0x04
	GlyphClassMark      uint16 = 0x08
	GlyphClassComponent uint16 = 0x10

	GlyphPropsSubstituted uint16 = 0x20
	GlyphPropsLigated     uint16 = 0x40
	GlyphPropsMultiplied  uint16 = 0x80

	// GlyphPropsPreserve is the set of bits setGlyphClass must carry over
	// when a glyph's class is reassigned mid-lookup.
	GlyphPropsPreserve = GlyphPropsSubstituted | GlyphPropsLigated | GlyphPropsMultiplied
)

// GDEF is the subset of the Glyph Definition table the engine needs:
// per-glyph class, mark-attachment class, and named mark glyph sets.
type GDEF struct {
	GlyphClass        ClassDef
	MarkAttachClass   ClassDef
	MarkGlyphSets     []Coverage // indexed by LookupFlag.MarkFilteringSet()
	HasVariationStore bool
}

// GlyphProps returns the GDEF-derived class bits (base/ligature/mark/component)
// for gid, or 0 if the font carries no GDEF class for it.
func (g *GDEF) GlyphProps(gid GID) uint16 {
	if g == nil || g.GlyphClass == nil {
		return 0
	}
	switch g.GlyphClass.Class(gid) {
	case 1:
		return GlyphClassBase
	case 2:
		return GlyphClassLigature
	case 3:
		return GlyphClassMark
	case 4:
		return GlyphClassComponent
	default:
		return 0
	}
}

func (g *GDEF) MarkAttachmentClass(gid GID) uint16 {
	if g == nil || g.MarkAttachClass == nil {
		return 0
	}
	return g.MarkAttachClass.Class(gid)
}

// Lookup is a single GSUB or GPOS lookup: its flags, and the ordered list
// of subtables to try (first match wins).
type Lookup struct {
	Flag      LookupFlag
	Subtables []interface{} // concrete *Subst*/*Pos* types below
}

// LangSys lists the feature indices active for one (script, language) pair.
type LangSys struct {
	RequiredFeatureIndex uint16 // 0xFFFF if none
	FeatureIndices       []uint16
}

type LangSysRecord struct {
	Tag Tag
	Sys LangSys
}

type ScriptRecord struct {
	Tag          Tag
	DefaultLang  LangSys
	HasDefault   bool
	Languages    []LangSysRecord
}

type FeatureRecord struct {
	Tag     Tag
	Lookups []uint16
}

// FeatureVariations optionally substitutes a feature's lookup list
// depending on the active variation-space region; the engine resolves it
// once per ShapePlan and treats the result as a flat FeatureList index.
type FeatureVariation struct {
	// SubstitutedFeatures, keyed by original feature index.
	SubstitutedFeatures map[uint16]FeatureRecord
}

// Layout is one of GSUB or GPOS: script/feature/lookup lists plus the
// resolved variation substitutions (if any) for the active instance.
type Layout struct {
	Scripts    []ScriptRecord
	Features   []FeatureRecord
	Lookups    []Lookup
	Variations []FeatureVariation // applied in order, later wins
}

// GSUB and GPOS bundle a Layout with the table-specific lookup payloads
// that otApply (package shaping) switches on.
type GSUBTable struct{ Layout Layout }
type GPOSTable struct{ Layout Layout }
