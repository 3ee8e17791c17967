package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// complexShaperIndic reorders Devanagari-family consonant syllables
// (reph, pre-base matra) and assigns the half/below/post/reph positional
// GSUB features, grounded on the teacher's ot_indic.go. That file's
// per-language indicConfigs table (virama codepoint, reph position/mode,
// blwf mode per script) and its generated category-table-driven initial/
// final reordering state machine were not retrievable in full from the
// pack, so this is a simplified reconstruction built on top of
// shaper_syllabic.go's shared classification and reordering helpers
// rather than a line-for-line port; see DESIGN.md.
type complexShaperIndic struct {
	complexShaperDefault

	rphfMask, prefMask, blwfMask, abvfMask, pstfMask, halfMask Mask
}

func (cs *complexShaperIndic) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addGSUBPause(setupSyllablesIndic)

	mb.enableFeatureExt(font.NewTag("locl"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("ccmp"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("nukt"), ffGlobalManualJoiners|ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("akhn"), ffGlobalManualJoiners|ffPerSyllable, 1)

	mb.addGSUBPause(cs.reorderIndic)

	for _, tag := range []font.Tag{
		font.NewTag("rphf"), font.NewTag("pref"), font.NewTag("blwf"),
		font.NewTag("abvf"), font.NewTag("half"), font.NewTag("pstf"),
	} {
		mb.addFeatureExt(tag, ffManualJoiners|ffPerSyllable, 1)
	}
	mb.enableFeatureExt(font.NewTag("rkrf"), ffGlobalManualJoiners|ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("vatu"), ffGlobalManualJoiners|ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("cjct"), ffGlobalManualJoiners|ffPerSyllable, 1)

	mb.addGSUBPause(nil)

	for _, tag := range []font.Tag{
		font.NewTag("init"), font.NewTag("pres"), font.NewTag("abvs"),
		font.NewTag("blws"), font.NewTag("psts"), font.NewTag("haln"),
	} {
		mb.addFeatureExt(tag, ffGlobalManualJoiners|ffPerSyllable, 1)
	}
}

func (complexShaperIndic) overrideFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.disableFeature(font.NewTag("liga"))
}

func setupSyllablesIndic(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
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

// reorderIndic inserts dotted circles into broken clusters then applies
// the two reordering rules shared across these scripts (pre-base matra,
// leading-Ra reph) via shaper_syllabic.go's reorderSyllable.
func (cs *complexShaperIndic) reorderIndic(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	u := unicodeProviderFor(buffer)
	if u == nil {
		return false
	}
	runs := findSyllables(u, buffer)
	runs = insertDottedCircles(buffer, face, runs)

	for _, run := range runs {
		start, end := run[0], run[1]
		st := syllableType(buffer.info[start].syllable & 0x0F)
		if st != syllableConsonant && st != syllableBroken && st != syllableVowel {
			continue
		}
		cs.assignPositionalMasks(u, buffer, start, end)
		reorderSyllable(u, buffer, start, end)
	}
	return true
}

// assignPositionalMasks tags the base consonant's reph (if a leading
// Ra+virama precedes it) and every consonant before the base with 'half',
// mirroring ot_indic.go's initial_reordering_consonant_syllable mask
// assignment without the full position-class state machine.
func (cs *complexShaperIndic) assignPositionalMasks(u unicodedata.Provider, buffer *Buffer, start, end int) {
	info := buffer.info

	if isRepha(u, info, start) {
		info[start].Mask |= cs.rphfMask
		info[start+1].Mask |= cs.rphfMask
	}

	base := -1
	for i := start; i < end; i++ {
		if classifySyllabic(u, info[i].codepoint) == catConsonant {
			base = i
		}
	}
	if base == -1 {
		return
	}

	for i := start; i < base; i++ {
		if classifySyllabic(u, info[i].codepoint) == catConsonant {
			info[i].Mask |= cs.halfMask
		}
	}
	for i := base + 1; i < end; i++ {
		if classifySyllabic(u, info[i].codepoint) == catConsonant {
			info[i].Mask |= cs.blwfMask | cs.pstfMask | cs.abvfMask
		}
	}
}

func (cs *complexShaperIndic) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	cs.rphfMask = plan.otMap.getMask1(font.NewTag("rphf"))
	cs.prefMask = plan.otMap.getMask1(font.NewTag("pref"))
	cs.blwfMask = plan.otMap.getMask1(font.NewTag("blwf"))
	cs.abvfMask = plan.otMap.getMask1(font.NewTag("abvf"))
	cs.pstfMask = plan.otMap.getMask1(font.NewTag("pstf"))
	cs.halfMask = plan.otMap.getMask1(font.NewTag("half"))
}

func (complexShaperIndic) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, false
}

func (complexShaperIndic) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacriticsNoShortCircuit
}

func (complexShaperIndic) gposTag() font.Tag { return 0 }
