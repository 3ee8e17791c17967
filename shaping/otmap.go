package shaping

import (
	"math"
	"math/bits"
	"sort"

	"github.com/inkwell/shaping/font"
)

// otMap compiles the caller's requested features plus every complex
// shaper's internal features into a stage plan and a bit allocation
// (spec §3 Mask, §4.3 Feature Map Builder). Ported from the teacher's
// ot_map.go, itself a port of harfbuzz's hb-ot-map.

type mapFeatureFlags uint8

const (
	ffGlobal mapFeatureFlags = 1 << iota
	ffHasFallback
	ffManualZWNJ
	ffManualZWJ
	ffGlobalSearch
	ffRandom
	ffPerSyllable

	ffNone           mapFeatureFlags = 0
	ffManualJoiners                  = ffManualZWNJ | ffManualZWJ
	ffGlobalManualJoiners            = ffGlobal | ffManualJoiners
	ffGlobalHasFallback              = ffGlobal | ffHasFallback
)

const (
	mapMaxBits  = 8
	mapMaxValue = (1 << mapMaxBits) - 1
)

type featureInfo struct {
	tag          font.Tag
	maxValue     uint32
	flags        mapFeatureFlags
	defaultValue uint32
	stage        [2]int // GSUB, GPOS
}

// pauseFunc runs between stages; it reports whether it may have changed
// the glyph sequence, which forces a digest refresh.
type pauseFunc func(plan *shapePlan, face *font.Face, buffer *Buffer) bool

type stageInfo struct {
	pauseFunc pauseFunc
	index     int
}

type mapBuilder struct {
	face          *font.Face
	props         font.SegmentProperties
	stages        [2][]stageInfo
	featureInfos  []featureInfo
	scriptIndex   [2]int
	languageIndex [2]int
	currentStage  [2]int
	chosenScript  [2]font.Tag
	foundScript   [2]bool
}

const noFeatureIndex = 0xFFFF
const noScriptIndex = 0xFFFF
const noLangSysIndex = 0xFFFF

func newMapBuilder(face *font.Face, props font.SegmentProperties) *mapBuilder {
	mb := &mapBuilder{face: face, props: props}
	gsub, gpos := face.Tables.GSUB(), face.Tables.GPOS()
	var layouts [2]*font.Layout
	if gsub != nil {
		layouts[0] = &gsub.Layout
	}
	if gpos != nil {
		layouts[1] = &gpos.Layout
	}
	tags := scriptTags(props.Script)
	for i, l := range layouts {
		mb.scriptIndex[i], mb.chosenScript[i], mb.foundScript[i] = selectScript(l, tags)
		mb.languageIndex[i] = selectLanguage(l, mb.scriptIndex[i], props.Language)
	}
	return mb
}

// scriptTags returns the OpenType script tags to try, most to least
// specific, for a given ISO 15924 script.
func scriptTags(s font.Script) []font.Tag {
	return []font.Tag{font.Tag(s), font.NewTag("DFLT"), font.NewTag("dflt")}
}

func selectScript(layout *font.Layout, tags []font.Tag) (idx int, chosen font.Tag, found bool) {
	if layout == nil {
		return noScriptIndex, 0, false
	}
	for _, tag := range tags {
		for i, sr := range layout.Scripts {
			if sr.Tag == tag {
				return i, tag, true
			}
		}
	}
	if len(layout.Scripts) != 0 {
		return 0, layout.Scripts[0].Tag, false
	}
	return noScriptIndex, 0, false
}

func selectLanguage(layout *font.Layout, scriptIndex int, lang font.Language) int {
	if layout == nil || scriptIndex == noScriptIndex || scriptIndex >= len(layout.Scripts) {
		return noLangSysIndex
	}
	sr := layout.Scripts[scriptIndex]
	want := font.NewTag(string(lang))
	for i, lr := range sr.Languages {
		if lr.Tag == want {
			return i
		}
	}
	return noLangSysIndex
}

func getLangSys(layout *font.Layout, scriptIndex, languageIndex int) (font.LangSys, bool) {
	if layout == nil || scriptIndex == noScriptIndex || scriptIndex >= len(layout.Scripts) {
		return font.LangSys{}, false
	}
	sr := layout.Scripts[scriptIndex]
	if languageIndex == noLangSysIndex || languageIndex >= len(sr.Languages) {
		if sr.HasDefault {
			return sr.DefaultLang, true
		}
		return font.LangSys{}, false
	}
	return sr.Languages[languageIndex].Sys, true
}

func getRequiredFeature(layout *font.Layout, scriptIndex, languageIndex int) (uint16, font.Tag) {
	ls, ok := getLangSys(layout, scriptIndex, languageIndex)
	if !ok || ls.RequiredFeatureIndex == noFeatureIndex || int(ls.RequiredFeatureIndex) >= len(layout.Features) {
		return noFeatureIndex, 0
	}
	return ls.RequiredFeatureIndex, layout.Features[ls.RequiredFeatureIndex].Tag
}

func findFeatureForLang(layout *font.Layout, scriptIndex, languageIndex int, tag font.Tag) uint16 {
	ls, ok := getLangSys(layout, scriptIndex, languageIndex)
	if !ok {
		return noFeatureIndex
	}
	for _, fi := range ls.FeatureIndices {
		if int(fi) < len(layout.Features) && layout.Features[fi].Tag == tag {
			return fi
		}
	}
	return noFeatureIndex
}

func findFeature(layout *font.Layout, tag font.Tag) uint16 {
	if layout == nil {
		return noFeatureIndex
	}
	for i, f := range layout.Features {
		if f.Tag == tag {
			return uint16(i)
		}
	}
	return noFeatureIndex
}

func getFeatureLookups(layout *font.Layout, featureIndex uint16) []uint16 {
	if layout == nil || featureIndex == noFeatureIndex || int(featureIndex) >= len(layout.Features) {
		return nil
	}
	return layout.Features[featureIndex].Lookups
}

func (mb *mapBuilder) addFeatureExt(tag font.Tag, flags mapFeatureFlags, value uint32) {
	info := featureInfo{tag: tag, maxValue: value, flags: flags, stage: mb.currentStage}
	if flags&ffGlobal != 0 {
		info.defaultValue = value
	}
	mb.featureInfos = append(mb.featureInfos, info)
}

func (mb *mapBuilder) addPause(tableIndex int, fn pauseFunc) {
	mb.stages[tableIndex] = append(mb.stages[tableIndex], stageInfo{index: mb.currentStage[tableIndex], pauseFunc: fn})
	mb.currentStage[tableIndex]++
}

func (mb *mapBuilder) addGSUBPause(fn pauseFunc) { mb.addPause(0, fn) }
func (mb *mapBuilder) addGPOSPause(fn pauseFunc) { mb.addPause(1, fn) }

func (mb *mapBuilder) enableFeatureExt(tag font.Tag, flags mapFeatureFlags, value uint32) {
	mb.addFeatureExt(tag, ffGlobal|flags, value)
}
func (mb *mapBuilder) enableFeature(tag font.Tag)  { mb.enableFeatureExt(tag, ffNone, 1) }
func (mb *mapBuilder) addFeature(tag font.Tag)     { mb.addFeatureExt(tag, ffNone, 1) }
func (mb *mapBuilder) disableFeature(tag font.Tag) { mb.addFeatureExt(tag, ffGlobal, 0) }

type featureMap struct {
	tag           font.Tag
	index         [2]uint16
	stage         [2]int
	shift         int
	mask          Mask
	mask1         Mask
	needsFallback bool
	autoZWNJ      bool
	autoZWJ       bool
	random        bool
	perSyllable   bool
}

func bsearchFeature(features []featureMap, tag font.Tag) *featureMap {
	lo, hi := 0, len(features)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case tag < features[mid].tag:
			hi = mid
		case tag > features[mid].tag:
			lo = mid + 1
		default:
			return &features[mid]
		}
	}
	return nil
}

type lookupMap struct {
	index       uint16
	autoZWNJ    bool
	autoZWJ     bool
	random      bool
	perSyllable bool
	featureTag  font.Tag
	mask        Mask
}

type stageMap struct {
	pauseFunc  pauseFunc
	lastLookup int
}

// otMap is the compiled plan: lookup sequence per stage, per GSUB/GPOS
// table, plus the bit allocation used to gate per-glyph application.
type otMap struct {
	lookups      [2][]lookupMap
	stages       [2][]stageMap
	features     []featureMap
	chosenScript [2]font.Tag
	globalMask   Mask
	foundScript  [2]bool

	gsubDigest, gposDigest [2]setDigest // per-lookup coverage digests, index aligned with face lookups
}

func (m *otMap) needsFallback(tag font.Tag) bool {
	if f := bsearchFeature(m.features, tag); f != nil {
		return f.needsFallback
	}
	return false
}

func (m *otMap) getMask(tag font.Tag) (Mask, int) {
	if f := bsearchFeature(m.features, tag); f != nil {
		return f.mask, f.shift
	}
	return 0, 0
}

func (m *otMap) getMask1(tag font.Tag) Mask {
	if f := bsearchFeature(m.features, tag); f != nil {
		return f.mask1
	}
	return 0
}

func (m *otMap) getFeatureIndex(tableIndex int, tag font.Tag) uint16 {
	if f := bsearchFeature(m.features, tag); f != nil {
		return f.index[tableIndex]
	}
	return noFeatureIndex
}

func (m *otMap) getFeatureStage(tableIndex int, tag font.Tag) int {
	if f := bsearchFeature(m.features, tag); f != nil {
		return f.stage[tableIndex]
	}
	return math.MaxInt32
}

func (m *otMap) getStageLookups(tableIndex, stage int) []lookupMap {
	if stage < 0 || stage > len(m.stages[tableIndex]) {
		return nil
	}
	start, end := 0, len(m.lookups[tableIndex])
	if stage != 0 {
		start = m.stages[tableIndex][stage-1].lastLookup
	}
	if stage < len(m.stages[tableIndex]) {
		end = m.stages[tableIndex][stage].lastLookup
	}
	return m.lookups[tableIndex][start:end]
}

func (m *otMap) addLookups(layout *font.Layout, tableIndex int, featureIndex uint16, mask Mask,
	autoZWNJ, autoZWJ, random, perSyllable bool, tag font.Tag,
) {
	for _, li := range getFeatureLookups(layout, featureIndex) {
		m.lookups[tableIndex] = append(m.lookups[tableIndex], lookupMap{
			index: li, mask: mask, autoZWNJ: autoZWNJ, autoZWJ: autoZWJ,
			random: random, perSyllable: perSyllable, featureTag: tag,
		})
	}
}

// bitStorage returns the number of bits needed to store v.
func bitStorage(v uint32) int {
	if v == 0 {
		return 0
	}
	return bits.Len32(v)
}

func (mb *mapBuilder) compile(m *otMap) {
	const globalBitShift = 8*4 - 1
	const globalBitMask Mask = 1 << globalBitShift
	m.globalMask = globalBitMask

	gsub, gpos := mb.face.Tables.GSUB(), mb.face.Tables.GPOS()
	var layouts [2]*font.Layout
	if gsub != nil {
		layouts[0] = &gsub.Layout
	}
	if gpos != nil {
		layouts[1] = &gpos.Layout
	}

	m.chosenScript = mb.chosenScript
	m.foundScript = mb.foundScript

	var requiredFeatureIndex [2]uint16
	var requiredFeatureTag [2]font.Tag
	var requiredFeatureStage [2]int
	requiredFeatureIndex[0], requiredFeatureTag[0] = getRequiredFeature(layouts[0], mb.scriptIndex[0], mb.languageIndex[0])
	requiredFeatureIndex[1], requiredFeatureTag[1] = getRequiredFeature(layouts[1], mb.scriptIndex[1], mb.languageIndex[1])

	if len(mb.featureInfos) != 0 {
		sort.SliceStable(mb.featureInfos, func(i, j int) bool { return mb.featureInfos[i].tag < mb.featureInfos[j].tag })
		j := 0
		for i, feat := range mb.featureInfos {
			if i == 0 {
				continue
			}
			if feat.tag != mb.featureInfos[j].tag {
				j++
				mb.featureInfos[j] = feat
				continue
			}
			if feat.flags&ffGlobal != 0 {
				mb.featureInfos[j].flags |= ffGlobal
				mb.featureInfos[j].maxValue = feat.maxValue
				mb.featureInfos[j].defaultValue = feat.defaultValue
			} else {
				if mb.featureInfos[j].flags&ffGlobal != 0 {
					mb.featureInfos[j].flags ^= ffGlobal
				}
				if feat.maxValue > mb.featureInfos[j].maxValue {
					mb.featureInfos[j].maxValue = feat.maxValue
				}
			}
			mb.featureInfos[j].flags |= feat.flags & ffHasFallback
			if feat.stage[0] < mb.featureInfos[j].stage[0] {
				mb.featureInfos[j].stage[0] = feat.stage[0]
			}
			if feat.stage[1] < mb.featureInfos[j].stage[1] {
				mb.featureInfos[j].stage[1] = feat.stage[1]
			}
		}
		mb.featureInfos = mb.featureInfos[:j+1]
	}

	nextBit := bits.OnesCount32(uint32(maskFlagsDefined)) + 1

	for _, info := range mb.featureInfos {
		var bitsNeeded int
		if info.flags&ffGlobal != 0 && info.maxValue == 1 {
			bitsNeeded = 0
		} else {
			bitsNeeded = bitStorage(info.maxValue)
			if bitsNeeded > mapMaxBits {
				bitsNeeded = mapMaxBits
			}
		}
		if info.maxValue == 0 || nextBit+bitsNeeded >= globalBitShift {
			continue
		}

		found := false
		var featureIndex [2]uint16
		for tableIndex, layout := range layouts {
			if requiredFeatureTag[tableIndex] == info.tag {
				requiredFeatureStage[tableIndex] = info.stage[tableIndex]
			}
			featureIndex[tableIndex] = findFeatureForLang(layout, mb.scriptIndex[tableIndex], mb.languageIndex[tableIndex], info.tag)
			found = found || featureIndex[tableIndex] != noFeatureIndex
		}
		if !found && info.flags&ffGlobalSearch != 0 {
			for tableIndex, layout := range layouts {
				featureIndex[tableIndex] = findFeature(layout, info.tag)
				found = found || featureIndex[tableIndex] != noFeatureIndex
			}
		}
		if !found && info.flags&ffHasFallback == 0 {
			continue
		}

		fm := featureMap{tag: info.tag, index: featureIndex, stage: info.stage}
		fm.autoZWNJ = info.flags&ffManualZWNJ == 0
		fm.autoZWJ = info.flags&ffManualZWJ == 0
		fm.random = info.flags&ffRandom != 0
		fm.perSyllable = info.flags&ffPerSyllable != 0
		if info.flags&ffGlobal != 0 && info.maxValue == 1 {
			fm.shift = globalBitShift
			fm.mask = globalBitMask
		} else {
			fm.shift = nextBit
			fm.mask = Mask(1<<(nextBit+bitsNeeded)) - Mask(1<<nextBit)
			nextBit += bitsNeeded
			m.globalMask |= (Mask(info.defaultValue) << fm.shift) & fm.mask
		}
		fm.mask1 = Mask(1<<fm.shift) & fm.mask
		fm.needsFallback = !found

		m.features = append(m.features, fm)
	}
	mb.featureInfos = mb.featureInfos[:0]

	mb.addGSUBPause(nil)
	mb.addGPOSPause(nil)

	for tableIndex, layout := range layouts {
		stageIndex := 0
		lastNumLookups := 0
		for stage := 0; stage < mb.currentStage[tableIndex]; stage++ {
			if requiredFeatureIndex[tableIndex] != noFeatureIndex && requiredFeatureStage[tableIndex] == stage {
				m.addLookups(layout, tableIndex, requiredFeatureIndex[tableIndex], globalBitMask, true, true, false, false, 0)
			}
			for _, feat := range m.features {
				if feat.stage[tableIndex] == stage {
					m.addLookups(layout, tableIndex, feat.index[tableIndex], feat.mask,
						feat.autoZWNJ, feat.autoZWJ, feat.random, feat.perSyllable, feat.tag)
				}
			}

			if ls := m.lookups[tableIndex]; lastNumLookups < len(ls) {
				view := ls[lastNumLookups:]
				sort.Slice(view, func(i, j int) bool { return view[i].index < view[j].index })
				j := lastNumLookups
				for i := j + 1; i < len(ls); i++ {
					if ls[i].index != ls[j].index {
						j++
						ls[j] = ls[i]
					} else {
						ls[j].mask |= ls[i].mask
						ls[j].autoZWNJ = ls[j].autoZWNJ && ls[i].autoZWNJ
						ls[j].autoZWJ = ls[j].autoZWJ && ls[i].autoZWJ
					}
				}
				m.lookups[tableIndex] = ls[:j+1]
			}
			lastNumLookups = len(m.lookups[tableIndex])

			if stageIndex < len(mb.stages[tableIndex]) && mb.stages[tableIndex][stageIndex].index == stage {
				m.stages[tableIndex] = append(m.stages[tableIndex], stageMap{
					lastLookup: lastNumLookups,
					pauseFunc:  mb.stages[tableIndex][stageIndex].pauseFunc,
				})
				stageIndex++
			}
		}
	}
}

func (mb *mapBuilder) hasFeature(tag font.Tag) bool {
	gsub, gpos := mb.face.Tables.GSUB(), mb.face.Tables.GPOS()
	var layouts [2]*font.Layout
	if gsub != nil {
		layouts[0] = &gsub.Layout
	}
	if gpos != nil {
		layouts[1] = &gpos.Layout
	}
	for tableIndex, layout := range layouts {
		if findFeatureForLang(layout, mb.scriptIndex[tableIndex], mb.languageIndex[tableIndex], tag) != noFeatureIndex {
			return true
		}
	}
	return false
}
