package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// complexShaperKhmer reorders Khmer consonant clusters and assigns the
// positional GSUB features (pref/blwf/abvf/pstf) a COENG (subscript)
// sequence needs, grounded on the teacher's ot_khmer.go. The teacher's own
// per-codepoint category table (khmSM_ex_*, indicGetCategories) wasn't part
// of the retrieved pack, so category classification here goes through
// shaper_syllabic.go's Unicode-property reconstruction instead of a ported
// table; the coeng/Ro reordering and feature-mask assignment below mirror
// ot_khmer.go's reorderConsonantSyllable directly.
type complexShaperKhmer struct {
	complexShaperDefault

	prefMask, blwfMask, abvfMask, pstfMask, cfarMask Mask
}

const khmerCoeng rune = 0x17D2 // Khmer sign COENG, this script's virama

func (cs *complexShaperKhmer) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addGSUBPause(setupSyllablesKhmer)
	mb.addGSUBPause(cs.reorderKhmer)

	mb.enableFeatureExt(font.NewTag("locl"), ffPerSyllable, 1)
	mb.enableFeatureExt(font.NewTag("ccmp"), ffPerSyllable, 1)

	for _, tag := range []font.Tag{
		font.NewTag("pref"), font.NewTag("blwf"), font.NewTag("abvf"),
		font.NewTag("pstf"), font.NewTag("cfar"),
	} {
		mb.addFeatureExt(tag, ffManualJoiners|ffPerSyllable, 1)
	}

	mb.addGSUBPause(nil)

	for _, tag := range []font.Tag{
		font.NewTag("pres"), font.NewTag("abvs"), font.NewTag("blws"), font.NewTag("psts"),
	} {
		mb.addFeatureExt(tag, ffGlobalManualJoiners, 1)
	}
}

func (complexShaperKhmer) overrideFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.enableFeature(font.NewTag("clig"))
	mb.disableFeature(font.NewTag("liga"))
}

func (cs *complexShaperKhmer) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	cs.prefMask = plan.otMap.getMask1(font.NewTag("pref"))
	cs.blwfMask = plan.otMap.getMask1(font.NewTag("blwf"))
	cs.abvfMask = plan.otMap.getMask1(font.NewTag("abvf"))
	cs.pstfMask = plan.otMap.getMask1(font.NewTag("pstf"))
	cs.cfarMask = plan.otMap.getMask1(font.NewTag("cfar"))
}

func setupSyllablesKhmer(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
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

// reorderKhmer is the GSUB pause that inserts dotted circles into broken
// clusters and reorders each consonant syllable's COENG+Ro prefix and
// pre-base vowel sign, the way ot_khmer.go's reorderKhmer/
// reorderConsonantSyllable does.
func (cs *complexShaperKhmer) reorderKhmer(plan *shapePlan, face *font.Face, buffer *Buffer) bool {
	u := unicodeProviderFor(buffer)
	if u == nil {
		return false
	}
	runs := findSyllables(u, buffer)
	runs = insertDottedCircles(buffer, face, runs)

	for _, run := range runs {
		start, end := run[0], run[1]
		st := syllableType(buffer.info[start].syllable & 0x0F)
		if st != syllableBroken && st != syllableConsonant {
			continue
		}
		cs.reorderConsonantSyllable(buffer, start, end)
	}
	return true
}

func (cs *complexShaperKhmer) reorderConsonantSyllable(buffer *Buffer, start, end int) {
	info := buffer.info

	mask := cs.blwfMask | cs.abvfMask | cs.pstfMask
	for i := start + 1; i < end; i++ {
		info[i].Mask |= mask
	}

	numCoengs := 0
	for i := start + 1; i < end; i++ {
		if info[i].codepoint == khmerCoeng && numCoengs < 2 && i+1 < end {
			numCoengs++
			// A COENG followed by RO (U+179A) reorders to the syllable's
			// start and takes 'pref' instead of the default post-base mask.
			if info[i+1].codepoint == 0x179A {
				info[i].Mask |= cs.prefMask
				info[i+1].Mask |= cs.prefMask

				buffer.mergeClusters(start, i+2)
				t0, t1 := info[i], info[i+1]
				copy(info[start+2:i+2], info[start:i])
				info[start] = t0
				info[start+1] = t1

				if cs.cfarMask != 0 {
					for j := i + 2; j < end; j++ {
						info[j].Mask |= cs.cfarMask
					}
				}
				numCoengs = 2
			}
		} else if u := unicodeProviderFor(buffer); u != nil && classifySyllabic(u, info[i].codepoint) == catVowelDependentPre {
			buffer.mergeClusters(start, i+1)
			t := info[i]
			copy(info[start+1:i+1], info[start:i])
			info[start] = t
		}
	}
}

func (complexShaperKhmer) decompose(u unicodedata.Provider, ab rune) (rune, rune, bool) {
	switch ab {
	case 0x17BE, 0x17BF, 0x17C0, 0x17C4, 0x17C5:
		return 0x17C1, ab, true
	}
	return u.Decompose(ab)
}

// compose refuses to recompose a split matra: a's general category being
// a mark means b is the matra's second half, not a fresh base.
func (complexShaperKhmer) compose(u unicodedata.Provider, a, b rune) (rune, bool) {
	if u.GeneralCategory(a).IsMark() {
		return 0, false
	}
	return u.Compose(a, b)
}

func (complexShaperKhmer) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksNone, false
}

func (complexShaperKhmer) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacriticsNoShortCircuit
}

func (complexShaperKhmer) gposTag() font.Tag { return 0 }
