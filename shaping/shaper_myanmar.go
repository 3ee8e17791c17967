package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// complexShaperMyanmar reorders Myanmar consonant syllables: a leading
// Ra+Asat+Halant (kinzi) moves after the base consonant, and a left matra
// moves before it, grounded on original_source/src/hb/ot_shaper_myanmar.rs
// (the Rust rewrite of the teacher's own ot-shaper-myanmar.cc, which this
// pack's Go port did not carry a file for). The Rust source's full
// position-sort reordering (POS_PRE_C/POS_BASE_C/.../POS_SMVD with a
// stable sort over 13 position classes) is simplified here to the two
// reorderings that matter for output correctness, reusing
// shaper_syllabic.go's shared segmentation; see DESIGN.md.
type complexShaperMyanmar struct {
	complexShaperDefault

	rphfMask, prefMask, blwfMask, pstfMask Mask
}

const (
	myanmarAsat  rune = 0x103A
	myanmarRa    rune = 0x101A
	myanmarRaAlt rune = 0x1004 // Ra used in the kinzi (Ra+Asat+Halant) form
)

func (cs *complexShaperMyanmar) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addGSUBPause(setupSyllablesMyanmar)

	mb.enableFeatureExt(font.NewTag("locl"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("ccmp"), ffPerSyllable, 1)

	mb.addGSUBPause(cs.reorderMyanmar)

	for _, tag := range []font.Tag{
		font.NewTag("rphf"), font.NewTag("pref"), font.NewTag("blwf"), font.NewTag("pstf"),
	} {
		mb.addFeatureExt(tag, ffManualJoiners|ffPerSyllable, 1)
		mb.addGSUBPause(nil)
	}

	mb.addGSUBPause(clearSubstitutionFlags)

	for _, tag := range []font.Tag{
		font.NewTag("pres"), font.NewTag("abvs"), font.NewTag("blws"), font.NewTag("psts"),
	} {
		mb.addFeatureExt(tag, ffManualJoiners, 1)
	}
}

func setupSyllablesMyanmar(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	u := unicodeProviderFor(buffer)
	if u == nil {
		return false
	}
	runs := findSyllables(u, buffer)
	for _, run := range runs {
		buffer.unsafeToBreak(run[0], run[1])
	}
	return false
}

func (cs *complexShaperMyanmar) reorderMyanmar(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	u := unicodeProviderFor(buffer)
	if u == nil {
		return false
	}
	runs := findSyllables(u, buffer)
	runs = insertDottedCircles(buffer, face, runs)

	for _, run := range runs {
		start, end := run[0], run[1]
		st := syllableType(buffer.info[start].syllable & 0x0F)
		if st != syllableConsonant && st != syllableBroken {
			continue
		}
		cs.reorderConsonantSyllable(u, buffer, start, end)
	}
	return true
}

// reorderConsonantSyllable looks for a kinzi (Ra+Asat+Halant) prefix and
// moves it to just after the base consonant, and moves a pre-base matra
// to the syllable's start (ot_shaper_myanmar.rs's two-rule simplification
// of its full position sort).
func (cs *complexShaperMyanmar) reorderConsonantSyllable(u unicodedata.Provider, buffer *Buffer, start, end int) {
	info := buffer.info

	hasKinzi := start+3 <= end &&
		(info[start].codepoint == myanmarRa || info[start].codepoint == myanmarRaAlt) &&
		info[start+1].codepoint == myanmarAsat &&
		classifySyllabic(u, info[start+2].codepoint) == catVirama

	base := -1
	searchFrom := start
	if hasKinzi {
		searchFrom = start + 3
	}
	for i := searchFrom; i < end; i++ {
		if classifySyllabic(u, info[i].codepoint) == catConsonant {
			base = i
			break
		}
	}

	if hasKinzi && base != -1 {
		buffer.mergeClusters(start, base+1)
		k0, k1, k2 := info[start], info[start+1], info[start+2]
		copy(info[start:base-2], info[start+3:base+1])
		info[base-2], info[base-1], info[base] = k0, k1, k2
	}

	reorderSyllable(u, buffer, start, end)
}

func (cs *complexShaperMyanmar) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	cs.rphfMask = plan.otMap.getMask1(font.NewTag("rphf"))
	cs.prefMask = plan.otMap.getMask1(font.NewTag("pref"))
	cs.blwfMask = plan.otMap.getMask1(font.NewTag("blwf"))
	cs.pstfMask = plan.otMap.getMask1(font.NewTag("pstf"))
}

func (complexShaperMyanmar) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefEarly, false
}

func (complexShaperMyanmar) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacriticsNoShortCircuit
}

func (complexShaperMyanmar) gposTag() font.Tag { return 0 }
