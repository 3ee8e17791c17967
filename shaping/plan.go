package shaping

import "github.com/inkwell/shaping/font"

// shapePlan is the immutable, reusable build product of the planner
// (spec §3 ShapePlan, §4.8 Shape Planner). Built once per (face,
// direction, script, language, features) tuple and safe to share across
// threads for reads, per spec §5.
type shapePlan struct {
	props  font.SegmentProperties
	shaper complexShaper

	otMap otMap
	accel *faceAccel

	// userFeatures holds the caller's range-scoped features (spec §6's
	// "[start:end]" syntax) so the driver can re-apply their masks per
	// cluster after the shaper's own setupMasks has run.
	userFeatures []Feature

	fracMask, numrMask, dnomMask Mask
	hasFrac                      bool

	rtlmMask Mask
	hasVert  bool

	kernMask         Mask
	requestedKerning bool
	trakMask         Mask
	requestedTrak    bool

	hasGposMark bool

	fallbackGlyphClasses bool

	applyGPOS  bool
	applyKerx  bool
	applyKern  bool
	applyTrak  bool
	applyMorx  bool

	zeroMarks                bool
	fallbackMarkPositioning  bool
	adjustMarkPosWhenZeroing bool
}

// Feature is a caller-requested OpenType feature toggle (spec §6's
// feature string: "+tag"/"-tag"/"tag=N", optionally range-scoped).
type Feature struct {
	Tag   font.Tag
	Value uint32
	Start, End int // [Start,End) in the original character indices; End==0 means "to the end"
}

// commonFeatures are always registered regardless of script or direction
// (spec §4.8 step 2).
var commonFeatures = [...]font.Tag{
	font.NewTag("abvm"), font.NewTag("blwm"), font.NewTag("ccmp"),
	font.NewTag("locl"), font.NewTag("mark"), font.NewTag("mkmk"), font.NewTag("rlig"),
}

var horizontalFeatures = [...]font.Tag{
	font.NewTag("calt"), font.NewTag("clig"), font.NewTag("curs"),
	font.NewTag("dist"), font.NewTag("kern"), font.NewTag("liga"), font.NewTag("rclt"),
}

var verticalFeatures = [...]font.Tag{font.NewTag("vert")}

// buildShapePlan runs the planner (spec §4.8): picks a shaper, registers
// features/stages, compiles the OtMap, and decides which backend applies
// substitution/positioning.
func buildShapePlan(face *font.Face, props font.SegmentProperties, userFeatures []Feature) *shapePlan {
	plan := &shapePlan{props: props}

	hasMorx := len(face.Tables.Morx()) != 0
	applyMorxCandidate := hasMorx && (props.Direction.IsHorizontal() || face.Tables.GSUB() == nil || len(face.Tables.GSUB().Layout.Lookups) == 0)

	shaper := shaperForScript(props.Script)
	if _, isDefault := shaper.(*complexShaperDefault); applyMorxCandidate && !isDefault {
		// Spec §4.8 step 1: morx subsumes most of the shaper's own work
		// on a horizontal run, so fall back to the "dumb" default shaper
		// rather than double-apply script-specific GSUB feature logic.
		shaper = &complexShaperDefault{dumb: true}
	}
	plan.shaper = shaper

	mb := newMapBuilder(face, props)

	shaper.collectFeatures(mb, props)

	for _, tag := range commonFeatures {
		mb.enableFeature(tag)
	}
	if props.Direction.IsHorizontal() {
		for _, tag := range horizontalFeatures {
			mb.enableFeature(tag)
		}
	} else {
		for _, tag := range verticalFeatures {
			mb.enableFeature(tag)
		}
	}

	shaper.overrideFeatures(mb, props)

	// trak is applied outside GSUB/GPOS; registering it with a fallback
	// keeps a caller's request for it from being dropped at compile, while
	// its zero value leaves it off unless the caller enables it.
	mb.addFeatureExt(font.NewTag("trak"), ffHasFallback, 0)

	for _, f := range userFeatures {
		mb.enableFeatureExt(f.Tag, ffNone, f.Value)
	}
	plan.userFeatures = userFeatures

	mb.compile(&plan.otMap)
	plan.accel = buildFaceAccel(face)

	plan.fracMask = plan.otMap.getMask1(font.NewTag("frac"))
	plan.numrMask = plan.otMap.getMask1(font.NewTag("numr"))
	plan.dnomMask = plan.otMap.getMask1(font.NewTag("dnom"))
	plan.hasFrac = plan.fracMask != 0 || (plan.numrMask != 0 && plan.dnomMask != 0)

	plan.rtlmMask = plan.otMap.getMask1(font.NewTag("rtlm"))
	plan.hasVert = plan.otMap.getMask1(font.NewTag("vert")) != 0

	kernTag := font.NewTag("vkrn")
	if props.Direction.IsHorizontal() {
		kernTag = font.NewTag("kern")
	}
	plan.kernMask, _ = plan.otMap.getMask(kernTag)
	plan.requestedKerning = plan.kernMask != 0
	plan.trakMask, _ = plan.otMap.getMask(font.NewTag("trak"))
	plan.requestedTrak = plan.trakMask != 0

	plan.fallbackGlyphClasses = face.Tables.GDEF() == nil || face.Tables.GDEF().GlyphClass == nil

	plan.applyMorx = applyMorxCandidate

	hasGposKern := plan.otMap.getFeatureIndex(1, kernTag) != noFeatureIndex
	disableGpos := shaper.gposTag() != 0 && shaper.gposTag() != plan.otMap.chosenScript[1]

	hasKerx := face.Tables.Kerx() != nil
	hasGSUB := !plan.applyMorx && face.Tables.GSUB() != nil && len(face.Tables.GSUB().Layout.Lookups) != 0
	hasGPOS := !disableGpos && face.Tables.GPOS() != nil && len(face.Tables.GPOS().Layout.Lookups) != 0

	switch {
	case hasKerx && !(hasGSUB && hasGPOS):
		plan.applyKerx = true
	case hasGPOS:
		plan.applyGPOS = true
	}

	if !plan.applyKerx && (!hasGposKern || !plan.applyGPOS) {
		switch {
		case hasKerx:
			plan.applyKerx = true
		case len(face.Tables.Kern()) != 0:
			plan.applyKern = true
		}
	}

	zwm, fallbackPos := shaper.marksBehavior()
	plan.zeroMarks = zwm != zeroWidthMarksNone && !plan.applyKerx
	plan.hasGposMark = plan.otMap.getMask1(font.NewTag("mark")) != 0

	plan.adjustMarkPosWhenZeroing = !plan.applyGPOS && !plan.applyKerx && !plan.applyKern
	if plan.applyMorx {
		plan.adjustMarkPosWhenZeroing = false
	}
	plan.fallbackMarkPositioning = plan.adjustMarkPosWhenZeroing && fallbackPos

	plan.applyTrak = plan.requestedTrak && face.Tables.Trak() != nil

	return plan
}
