package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// arabicJoinState is the per-glyph cursive-joining form a position takes,
// derived from its own Unicode joining type and its non-transparent
// neighbors' (spec §4.7 "assigns joining state... via Unicode joining
// type"). No ot_arabic.go source file was retrieved for this teacher (only
// ot_arabic_test.go, which exercises arabicFallbackFeatures/
// hasArabicJoining by name but not their bodies) so this state assignment
// is reconstructed directly from the Unicode joining rules (UAX #53)
// rather than ported line-for-line; see DESIGN.md.
type arabicJoinState uint8

const (
	arabicJoinNone arabicJoinState = iota
	arabicJoinIsol
	arabicJoinInit
	arabicJoinMedi
	arabicJoinFina
)

var arabicJoinFeature = [...]font.Tag{
	arabicJoinNone: 0,
	arabicJoinIsol: font.NewTag("isol"),
	arabicJoinInit: font.NewTag("init"),
	arabicJoinMedi: font.NewTag("medi"),
	arabicJoinFina: font.NewTag("fina"),
}

// arabicFallbackFeatures lists the joining features the fallback (no-GSUB)
// path would need to have synthesized glyph substitutions for; named to
// match the teacher's arabicFallbackFeatures/arabicFallbackMaxLookups
// identifiers its test file asserts against.
var arabicFallbackFeatures = [...]font.Tag{
	font.NewTag("isol"), font.NewTag("fina"), font.NewTag("medi"), font.NewTag("init"),
}

const arabicFallbackMaxLookups = 5

// hasArabicJoining reports whether lang's script uses the joining
// behavior this shaper implements (Arabic itself plus its close cousins
// routed to the same shaper in shaperForScript).
func hasArabicJoining(tag font.Tag) bool {
	switch tag {
	case font.NewTag("Arab"), font.NewTag("Syrc"), font.NewTag("Mong"), font.NewTag("Nkoo"),
		font.NewTag("Phag"), font.NewTag("Mand"), font.NewTag("Adlm"):
		return true
	}
	return false
}

type complexShaperArabic struct {
	complexShaperDefault
	script font.Script

	isolMask, initMask, mediMask, finaMask Mask
	rligMask, msetMask                     Mask
}

func newArabicShaper(script font.Script) complexShaper {
	return &complexShaperArabic{script: script}
}

func (a *complexShaperArabic) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addGSUBPause(nil)
	for _, tag := range []font.Tag{font.NewTag("ccmp"), font.NewTag("locl")} {
		mb.addFeature(tag)
	}
	mb.addGSUBPause(nil)
	for _, tag := range arabicJoinFeature {
		if tag != 0 {
			mb.addFeature(tag)
		}
	}
	mb.addFeature(font.NewTag("rlig"))
	mb.addGSUBPause(clearSubstitutionFlags)
	mb.addFeature(font.NewTag("mset"))
}

func (a *complexShaperArabic) overrideFeatures(mb *mapBuilder, props font.SegmentProperties) {
	// 'calt' is a general-purpose contextual-alternate feature that a
	// default Latin pipeline enables; the cursive-joining features above
	// already cover it for Arabic-joined scripts, and leaving it on can
	// double up substitutions some fonts only meant for one or the other.
	mb.disableFeature(font.NewTag("calt"))
}

func (a *complexShaperArabic) normalizationPreference() normalizationPreference {
	return normPreferenceComposedDiacritics
}

func (a *complexShaperArabic) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, true
}

func (a *complexShaperArabic) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	a.isolMask = plan.otMap.getMask1(font.NewTag("isol"))
	a.initMask = plan.otMap.getMask1(font.NewTag("init"))
	a.mediMask = plan.otMap.getMask1(font.NewTag("medi"))
	a.finaMask = plan.otMap.getMask1(font.NewTag("fina"))

	u := unicodeProviderFor(buffer)
	if u == nil {
		return
	}

	// Joining state depends on both neighbors (UAX #53): a glyph joins the
	// previous one only if the previous glyph's own type lets it reach
	// forward *and* this glyph's own type lets it accept a join from
	// behind, and symmetrically for the next glyph. Transparent glyphs
	// (marks) are skipped when looking for a neighbor, never break a
	// joining run, and never receive a join feature themselves.
	info := buffer.info
	type joinable struct {
		i  int
		jt unicodedata.JoiningType
	}
	var run []joinable
	for i := range info {
		jt := u.JoiningType(info[i].codepoint)
		if jt == unicodedata.JoiningTransparent {
			continue
		}
		run = append(run, joinable{i, jt})
	}

	canJoinNext := func(jt unicodedata.JoiningType) bool {
		return jt == unicodedata.JoiningDual || jt == unicodedata.JoiningCausing || jt == unicodedata.JoiningLeft
	}
	canJoinPrev := func(jt unicodedata.JoiningType) bool {
		return jt == unicodedata.JoiningDual || jt == unicodedata.JoiningCausing || jt == unicodedata.JoiningRight
	}

	for pos, cur := range run {
		if cur.jt == unicodedata.JoiningNone {
			continue
		}
		joinsPrev := pos > 0 && canJoinNext(run[pos-1].jt) && canJoinPrev(cur.jt)
		joinsNext := pos < len(run)-1 && canJoinPrev(run[pos+1].jt) && canJoinNext(cur.jt)

		var state arabicJoinState
		switch {
		case joinsPrev && joinsNext:
			state = arabicJoinMedi
		case joinsPrev && !joinsNext:
			state = arabicJoinFina
		case !joinsPrev && joinsNext:
			state = arabicJoinInit
		default:
			state = arabicJoinIsol
		}

		i := cur.i
		switch state {
		case arabicJoinIsol:
			info[i].Mask |= a.isolMask
		case arabicJoinInit:
			info[i].Mask |= a.initMask
		case arabicJoinMedi:
			info[i].Mask |= a.mediMask
		case arabicJoinFina:
			info[i].Mask |= a.finaMask
		}
	}
}

func (complexShaperArabic) gposTag() font.Tag { return 0 }

// unicodeProviderFor recovers the UnicodeData provider stashed on the
// buffer for the duration of one shape call (spec §5: the provider is
// only threaded explicitly through Shape/ShapeWithPlan; setupMasks's
// signature is fixed by the complexShaper interface, so this indirection
// avoids widening every shaper's signature for one script's needs). Shared
// by every shaper that needs Unicode properties mid-pipeline, not just
// Arabic.
func unicodeProviderFor(buffer *Buffer) unicodedata.Provider { return buffer.unicodeProvider }
