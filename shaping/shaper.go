package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// zeroWidthMarks selects how a complex shaper wants combining marks
// lacking GPOS/AAT attachment zeroed out (spec §4.7's
// `zero_width_marks` toggle).
type zeroWidthMarks uint8

const (
	zeroWidthMarksNone zeroWidthMarks = iota
	zeroWidthMarksByGdefEarly
	zeroWidthMarksByGdefLate
)

// normalizationPreference is the mode the normalizer (C2) runs under for
// a given shaper (spec §4.2).
type normalizationPreference uint8

const (
	normPreferenceComposedDiacritics normalizationPreference = iota
	normPreferenceDecomposed
	normPreferenceComposedDiacriticsNoShortCircuit
	normPreferenceNone
)

// complexShaper is the per-script plugin the planner selects and the
// driver calls back into at fixed points of the pipeline (spec §4.7's
// "struct of optional callbacks"). Reconstructed from the call sites in
// the teacher's ot_shaper.go (newOtShapePlanner/compile/otContext.shape);
// the teacher's own interface declaration lives in a file this pack did
// not retrieve, so the method set here is inferred from usage rather
// than copied verbatim — see DESIGN.md.
//
// Every method has a no-op default via complexShaperDefault so concrete
// shapers only override what they need, mirroring the teacher's "struct
// of optional function pointers" design (spec §9).
type complexShaper interface {
	// collectFeatures registers the shaper's own GSUB/GPOS features and
	// stage pauses into the map builder, before the 7 common features are
	// added (spec §4.8 step 2).
	collectFeatures(mb *mapBuilder, props font.SegmentProperties)

	// overrideFeatures runs after the common features are registered,
	// letting a shaper disable one the common set enabled by default.
	overrideFeatures(mb *mapBuilder, props font.SegmentProperties)

	normalizationPreference() normalizationPreference

	// decompose/compose are the normalizer's shaper-specific hooks (spec
	// §4.2 step 3); compose may refuse a composition (returns ok=false)
	// when a later GPOS mark is expected to attach to the decomposed form.
	decompose(u unicodedata.Provider, cp rune) (a, b rune, ok bool)
	compose(u unicodedata.Provider, a, b rune) (c rune, ok bool)

	// preprocessText/postprocessGlyphs run immediately before normalization
	// and immediately after all GSUB stages, respectively (spec §4.9).
	preprocessText(plan *shapePlan, buffer *Buffer, face *font.Face)
	postprocessGlyphs(plan *shapePlan, buffer *Buffer, face *font.Face)

	// setupMasks tags each buffer entry's mask for per-position features
	// (spec §4.7's Indic/Khmer/Myanmar/Arabic mask assignment).
	setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face)

	// reorderMarks runs after GPOS/kerx positioning (spec §4.9 step 6).
	reorderMarks(plan *shapePlan, buffer *Buffer, start, end int)

	marksBehavior() (zeroWidthMarks, fallbackPositioning bool)
	gposTag() font.Tag
}

// complexShaperDefault supplies every complexShaper method as a no-op (or
// the Default-shaper answer), so concrete shapers embed it and override
// only what their script needs.
type complexShaperDefault struct {
	// dumb marks the "morx subsumes everything" variant the planner
	// selects when an AAT morx table is present on a horizontal run
	// (spec §4.8 step 1): even collectFeatures/setupMasks are skipped
	// since morx provides its own substitution pipeline.
	dumb bool
}

func (complexShaperDefault) collectFeatures(*mapBuilder, font.SegmentProperties)  {}
func (complexShaperDefault) overrideFeatures(*mapBuilder, font.SegmentProperties) {}
func (complexShaperDefault) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacritics
}
func (complexShaperDefault) decompose(u unicodedata.Provider, cp rune) (rune, rune, bool) {
	return u.Decompose(cp)
}
func (complexShaperDefault) compose(u unicodedata.Provider, a, b rune) (rune, bool) {
	return u.Compose(a, b)
}
func (complexShaperDefault) preprocessText(*shapePlan, *Buffer, *font.Face)    {}
func (complexShaperDefault) postprocessGlyphs(*shapePlan, *Buffer, *font.Face) {}
func (complexShaperDefault) setupMasks(*shapePlan, *Buffer, *font.Face)        {}
func (complexShaperDefault) reorderMarks(*shapePlan, *Buffer, int, int)        {}
func (complexShaperDefault) marksBehavior() (zeroWidthMarks, bool)             { return zeroWidthMarksNone, false }
func (complexShaperDefault) gposTag() font.Tag                                { return 0 }

// shaperForScript picks the complex shaper for a script (spec §4.8 step
// 1), mirroring the teacher's categorizeComplex dispatch table.
func shaperForScript(script font.Script) complexShaper {
	switch script {
	case font.ScriptArabic:
		return newArabicShaper(script)
	case font.NewScript("Syrc"), font.NewScript("Mong"), font.NewScript("Nkoo"),
		font.NewScript("Phag"), font.NewScript("Mand"), font.NewScript("Adlm"):
		return newArabicShaper(script)
	case font.ScriptHangul:
		return &complexShaperHangul{}
	case font.ScriptHebrew:
		return &complexShaperHebrew{}
	case font.ScriptThai, font.NewScript("Laoo"):
		return &complexShaperThai{}
	case font.ScriptKhmer:
		return &complexShaperKhmer{}
	case font.ScriptMyanmar:
		return &complexShaperMyanmar{}
	case font.ScriptDevanagari, font.ScriptBengali, font.ScriptGurmukhi, font.ScriptGujarati,
		font.ScriptOriya, font.ScriptTamil, font.ScriptTelugu, font.ScriptKannada, font.ScriptMalayalam,
		font.NewScript("Sinh"):
		return &complexShaperIndic{}
	case font.ScriptUnknown, font.ScriptCommon, font.ScriptInherited, font.ScriptLatin,
		font.ScriptGreek, font.ScriptCyrillic, font.ScriptHan, font.ScriptHiragana, font.ScriptKatakana:
		return &complexShaperDefault{}
	default:
		// Every other script not covered above goes through the
		// Universal Shaping Engine, the way harfbuzz/rustybuzz route the
		// long tail of "supported but not specially handled" scripts
		// (spec §4.7 "Use").
		return &complexShaperUSE{}
	}
}

// clearSubstitutionFlags is a GSUB pause shared by several shapers
// (Arabic/Myanmar/Use): it clears the "substituted" derived bit
// between reordering stages so later stages re-derive it cleanly.
func clearSubstitutionFlags(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	for i := range buffer.info {
		buffer.info[i].glyphProps &^= font.GlyphPropsSubstituted
	}
	return false
}
