package shaping

import "github.com/inkwell/shaping/font"

// complexShaperUSE is the long-tail "Universal Shaping Engine" route for
// every script not given its own dedicated shaper (spec §4.7 "Use"),
// grounded on the teacher's ot_use.go. When the script is also one of the
// Arabic-joining family, setupMasks looks up the isol/init/medi/fina
// masks but assigns no joining state and sets none of those masks on any
// entry; the full orthographic-unit reordering state machine
// (useSM_ex_* category table driving reorderUse) is not reconstructed —
// USE covers scripts this engine has no dedicated reordering rules for,
// so only syllable segmentation, rphf masking, and dotted-circle insertion
// are implemented; see DESIGN.md.
type complexShaperUSE struct {
	complexShaperDefault

	rphfMask           Mask
	hasArabicJoining   bool
	isolMask, initMask Mask
	mediMask, finaMask Mask
}

func (cs *complexShaperUSE) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addGSUBPause(setupSyllablesUse)

	mb.enableFeatureExt(font.NewTag("locl"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("ccmp"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("nukt"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("akhn"), ffManualJoiners|ffPerSyllable, 1)

	mb.addGSUBPause(clearSubstitutionFlags)
	mb.addFeatureExt(font.NewTag("rphf"), ffManualJoiners|ffPerSyllable, 1)
	mb.addGSUBPause(nil)
	mb.addGSUBPause(clearSubstitutionFlags)
	mb.enableFeatureExt(font.NewTag("pref"), ffManualJoiners|ffPerSyllable, 1)
	mb.addGSUBPause(nil)

	for _, tag := range []font.Tag{
		font.NewTag("rkrf"), font.NewTag("abvf"), font.NewTag("blwf"),
		font.NewTag("half"), font.NewTag("pstf"), font.NewTag("vatu"), font.NewTag("cjct"),
	} {
		mb.enableFeatureExt(tag, ffManualJoiners|ffPerSyllable, 1)
	}

	mb.addGSUBPause(cs.reorderUse)
	mb.addGSUBPause(nil)

	if cs.hasArabicJoining {
		for _, tag := range []font.Tag{
			font.NewTag("isol"), font.NewTag("init"), font.NewTag("medi"), font.NewTag("fina"),
		} {
			mb.addFeature(tag)
		}
		mb.addGSUBPause(nil)
	}

	for _, tag := range []font.Tag{
		font.NewTag("abvs"), font.NewTag("blws"), font.NewTag("haln"),
		font.NewTag("pres"), font.NewTag("psts"),
	} {
		mb.enableFeatureExt(tag, ffManualJoiners, 1)
	}
}

func setupSyllablesUse(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
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

// reorderUse inserts dotted circles into broken clusters and applies the
// same shared pre-base-matra/repha reordering every script in this family
// needs (ot_use.go's reorderUse calls into the same Indic-derived helpers
// for the scripts it routes here).
func (cs *complexShaperUSE) reorderUse(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	u := unicodeProviderFor(buffer)
	if u == nil {
		return false
	}
	runs := findSyllables(u, buffer)
	runs = insertDottedCircles(buffer, face, runs)
	for _, run := range runs {
		reorderSyllable(u, buffer, run[0], run[1])
	}
	return true
}

func (cs *complexShaperUSE) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	cs.hasArabicJoining = hasArabicJoining(font.NewTag(plan.props.Script.String()))
	cs.rphfMask = plan.otMap.getMask1(font.NewTag("rphf"))
	cs.isolMask = plan.otMap.getMask1(font.NewTag("isol"))
	cs.initMask = plan.otMap.getMask1(font.NewTag("init"))
	cs.mediMask = plan.otMap.getMask1(font.NewTag("medi"))
	cs.finaMask = plan.otMap.getMask1(font.NewTag("fina"))

	u := unicodeProviderFor(buffer)
	if u == nil || cs.rphfMask == 0 {
		return
	}

	runs := findSyllables(u, buffer)
	for _, run := range runs {
		start, end := run[0], run[1]
		limit := 1
		if classifySyllabic(u, buffer.info[start].codepoint) != catRepha {
			if n := end - start; n < 3 {
				limit = n
			} else {
				limit = 3
			}
		}
		for i := start; i < start+limit; i++ {
			buffer.info[i].Mask |= cs.rphfMask
		}
	}
}

func (complexShaperUSE) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, false
}

func (complexShaperUSE) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacriticsNoShortCircuit
}

func (complexShaperUSE) gposTag() font.Tag { return 0 }
