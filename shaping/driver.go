package shaping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// The shape driver (spec §4.9, §9 "Shape Driver") sequences every other
// stage: normalization, per-script preprocessing, mask setup, GSUB/AAT
// substitution, positioning, and the handful of buffer-wide cleanups
// (ignorable hiding, mark zeroing, fallback positioning) that happen
// around them. Ported from the teacher's otContext.shape in
// ot_shaper.go; the teacher's own function is considerably longer
// because it also handles the insert-dotted-circle and
// ZWJ/khutba-preservation corners this port folds into the complex
// shapers themselves.

// ShapePlan is the opaque, reusable product of the planner (spec §5);
// build once per (face, direction, script, language, features) tuple and
// reuse it across calls that share that tuple.
type ShapePlan = shapePlan

// NewShapePlan runs the planner for props/features against face, so a
// caller shaping many runs with the same script/direction/language/font
// combination can skip re-planning each time (spec §5).
func NewShapePlan(face *font.Face, props font.SegmentProperties, features []Feature) *ShapePlan {
	return buildShapePlan(face, props, features)
}

// Shape infers any of buffer's Direction/Script/Language left unset from
// its own content, builds a one-shot plan, and runs the full pipeline
// (spec §4's top-level entry point).
func Shape(face *font.Face, features []Feature, buffer *Buffer) *GlyphBuffer {
	return ShapeWithProvider(face, features, buffer, unicodedata.Default{})
}

// ShapeWithProvider is Shape with an explicit Unicode data provider,
// letting a caller substitute their own General_Category/script/joining
// tables instead of the bundled unicodedata.Default (spec §4.2's
// "Unicode Database Provider").
func ShapeWithProvider(face *font.Face, features []Feature, buffer *Buffer, u unicodedata.Provider) *GlyphBuffer {
	buffer.GuessSegmentProperties(u)
	plan := NewShapePlan(face, buffer.Props, features)
	return ShapeWithPlan(face, plan, buffer, u)
}

// ShapeWithPlan runs the pipeline with a previously built plan. The
// caller is responsible for plan having been built from properties
// matching buffer.Props; a mismatch is not checked (spec §5).
func ShapeWithPlan(face *font.Face, plan *ShapePlan, buffer *Buffer, u unicodedata.Provider) *GlyphBuffer {
	if u == nil {
		u = unicodedata.Default{}
	}
	if len(buffer.info) == 0 {
		return &GlyphBuffer{}
	}

	targetDirection := buffer.Props.Direction

	buffer.MaxOps = len(buffer.info) * 64
	if buffer.MaxOps < 16384 {
		buffer.MaxOps = 16384
	}
	buffer.unicodeProvider = u

	plan.shaper.preprocessText(plan, buffer, face)

	normalizeBuffer(buffer, face, u, plan.shaper)

	buffer.resetMasks(plan.otMap.globalMask)
	setupMasksFraction(plan, buffer)
	plan.shaper.setupMasks(plan, buffer, face)
	applyUserFeatureRanges(plan, buffer)

	if plan.fallbackMarkPositioning {
		fallbackMarkPositionRecategorizeMarks(buffer)
	}
	if plan.fallbackGlyphClasses {
		synthesizeGlyphClasses(buffer)
	} else {
		primeGlyphProps(buffer, face)
	}

	if plan.applyMorx {
		applyMorx(face.Tables.Morx(), buffer)
	}
	plan.otMap.apply(0, plan, face, plan.accel, buffer)
	plan.shaper.postprocessGlyphs(plan, buffer, face)

	positionDefault(face, buffer)

	if plan.zeroMarks {
		zeroMarkWidthsByGdef(buffer, false)
	}

	switch {
	case plan.applyKerx:
		applyKerx(face.Tables.Kerx(), face, buffer)
	case plan.applyGPOS:
		plan.otMap.apply(1, plan, face, plan.accel, buffer)
	case plan.applyKern:
		applyLegacyKernTable(face, buffer)
	}

	if plan.zeroMarks {
		zeroMarkWidthsByGdef(buffer, true)
	}

	zeroWidthDefaultIgnorables(buffer)
	propagateAttachmentOffsets(buffer)

	if plan.fallbackMarkPositioning {
		fallbackMarkPosition(face, buffer)
	}

	reorderMarksPerCluster(plan, buffer)

	if plan.applyTrak {
		applyTrak(face, buffer)
	}

	if plan.applyMorx && !plan.applyGPOS && !plan.applyKerx {
		removeDeletedGlyphs(buffer)
	}

	hideDefaultIgnorables(buffer, face)

	propagateFlags(buffer)

	if targetDirection.IsBackward() {
		buffer.Reverse()
	}
	buffer.Props.Direction = targetDirection
	buffer.unicodeProvider = nil
	buffer.MaxOps = 0

	return &GlyphBuffer{
		infos:     append([]GlyphInfo(nil), buffer.info...),
		positions: append([]GlyphPosition(nil), buffer.pos...),
	}
}

// applyUserFeatureRanges re-applies every range-scoped caller feature
// (spec §6's "[start:end]" syntax) after the shaper's own setupMasks has
// had a chance to run, since a range restriction narrows what the global
// mask otherwise turned on everywhere.
func applyUserFeatureRanges(plan *shapePlan, buffer *Buffer) {
	for _, f := range plan.userFeatures {
		if f.Start == 0 && f.End == 0 {
			continue
		}
		mask, shift := plan.otMap.getMask(f.Tag)
		if mask == 0 {
			continue
		}
		buffer.setMasks(Mask(f.Value)<<shift, mask, f.Start, f.End)
	}
}

// reorderMarksPerCluster runs the shaper's post-positioning mark
// reordering hook (spec §4.9 step 6) once per cluster.
func reorderMarksPerCluster(plan *shapePlan, buffer *Buffer) {
	info := buffer.info
	start := 0
	for start < len(info) {
		end := start + 1
		for end < len(info) && info[end].Cluster == info[start].Cluster {
			end++
		}
		plan.shaper.reorderMarks(plan, buffer, start, end)
		start = end
	}
}

// positionDefault seeds every glyph's advance from the font's hmtx/vmtx
// metrics before GPOS/kerx/kern adjusts them (spec §4.5 "GPOS positions
// are deltas on top of the font's default advances").
func positionDefault(face *font.Face, buffer *Buffer) {
	vertical := buffer.Props.Direction.IsVertical()
	for i := range buffer.info {
		gid := buffer.info[i].Glyph
		if vertical {
			buffer.pos[i].YAdvance = face.VScale(face.Tables.GlyphVAdvance(gid))
		} else {
			buffer.pos[i].XAdvance = face.HScale(face.Tables.GlyphHAdvance(gid))
		}
	}
}

// setupMasksFraction tags the three parts of a U+2044 FRACTION SLASH
// expression (numerator / slash / denominator) with the frac/numr/dnom
// feature masks the font's 'frac' lookups key off of (spec §4.9's
// fraction-slash special case, the one piece of mask setup every shaper
// shares rather than delegates).
func setupMasksFraction(plan *shapePlan, buffer *Buffer) {
	if !plan.hasFrac {
		return
	}
	info := buffer.info
	i := 0
	for i < len(info) {
		if info[i].codepoint != 0x2044 {
			i++
			continue
		}
		start := i
		for start > 0 && info[start-1].unicode.generalCategory() == unicodedata.DecimalNumber {
			start--
		}
		end := i + 1
		for end < len(info) && info[end].unicode.generalCategory() == unicodedata.DecimalNumber {
			end++
		}
		if start == i && end == i+1 {
			i++
			continue
		}
		for k := start; k < i; k++ {
			info[k].Mask |= plan.fracMask | plan.numrMask
		}
		info[i].Mask |= plan.fracMask
		for k := i + 1; k < end; k++ {
			info[k].Mask |= plan.fracMask | plan.dnomMask
		}
		i = end
	}
}

// zeroMarkWidthsByGdef zeros the advance of every GDEF-classified mark,
// since a combining mark's own advance (as opposed to its GPOS/kerx
// anchor offset) would otherwise double-space the base it attaches to.
// early runs before positioning, adjusting the mark's offset to cancel
// the advance it is about to lose; late runs after, when the anchor
// offset is already final and no compensation is needed.
func zeroMarkWidthsByGdef(buffer *Buffer, adjustOffsets bool) {
	for i := range buffer.info {
		if !buffer.info[i].isMark() {
			continue
		}
		if adjustOffsets {
			buffer.pos[i].XOffset += buffer.pos[i].XAdvance
			buffer.pos[i].YOffset += buffer.pos[i].YAdvance
		}
		buffer.pos[i].XAdvance = 0
		buffer.pos[i].YAdvance = 0
	}
}

// zeroWidthDefaultIgnorables zeros the advance of every default-ignorable
// glyph (ZWJ, ZWNJ, variation selectors, ...) that survived substitution
// unhidden, so a font lacking a dedicated invisible glyph still renders
// them with no visible gap (spec §4.9).
func zeroWidthDefaultIgnorables(buffer *Buffer) {
	if buffer.scratchFlags&scratchHasDefaultIgnorables == 0 {
		return
	}
	if buffer.flags&(PreserveDefaultIgnorables|RemoveDefaultIgnorables) != 0 {
		return
	}
	for i := range buffer.info {
		if buffer.info[i].isDefaultIgnorableAndNotHidden() {
			buffer.pos[i].XAdvance = 0
			buffer.pos[i].YAdvance = 0
			buffer.pos[i].XOffset = 0
			buffer.pos[i].YOffset = 0
		}
	}
}

// hideDefaultIgnorables finishes default-ignorable handling (spec §4.9):
// RemoveDefaultIgnorables strips them outright; the default behavior
// replaces each with the font's designated invisible-space glyph, if it
// has one, rather than leaving the original (possibly inked) glyph id
// bound to a zero advance.
func hideDefaultIgnorables(buffer *Buffer, face *font.Face) {
	if buffer.scratchFlags&scratchHasDefaultIgnorables == 0 {
		return
	}
	if buffer.flags&RemoveDefaultIgnorables != 0 {
		deleteDefaultIgnorables(buffer)
		return
	}
	if buffer.flags&PreserveDefaultIgnorables != 0 {
		return
	}
	invisible, ok := face.Tables.NominalGlyph(' ')
	if !ok {
		return
	}
	for i := range buffer.info {
		if buffer.info[i].isDefaultIgnorableAndNotHidden() {
			buffer.info[i].Glyph = invisible
		}
	}
}

// deleteDefaultIgnorables removes every unhidden default-ignorable entry
// from the buffer entirely, used when BufferFlags asks for removal
// rather than the default invisible-glyph substitution.
func deleteDefaultIgnorables(buffer *Buffer) {
	out := buffer.info[:0]
	outPos := buffer.pos[:0]
	for i := range buffer.info {
		if buffer.info[i].isDefaultIgnorableAndNotHidden() {
			continue
		}
		out = append(out, buffer.info[i])
		outPos = append(outPos, buffer.pos[i])
	}
	buffer.info = out
	buffer.pos = outPos
}

// primeGlyphProps seeds every buffer entry's glyph-properties byte from
// the font's real GDEF table before GSUB begins, so the skipping
// iterator's mark-filtering rules (spec §4.4) already see the right
// classification on glyphs no lookup has touched yet — otherwise a mark
// occurring before the first substitution ever ran would read as class 0
// and never be skipped by IGNORE_MARKS (ported from the teacher's
// hb_ot_layout_substitute_start call site in ot_layout_gsubgpos.go).
func primeGlyphProps(buffer *Buffer, face *font.Face) {
	gdef := face.Tables.GDEF()
	if gdef == nil || gdef.GlyphClass == nil {
		return
	}
	for i := range buffer.info {
		buffer.info[i].glyphProps |= gdef.GlyphProps(buffer.info[i].Glyph)
	}
}

// synthesizeGlyphClasses fills in GDEF glyph classes (base/ligature/mark)
// from the derived ligated bits and each entry's Unicode general
// category, for fonts whose GDEF table has no glyph classes, so fonts that omit GDEF entirely
// still get a usable classification for mark filtering and positioning
// (spec §4.9, ported from the teacher's otShapeFallbackGlyphClasses).
func synthesizeGlyphClasses(buffer *Buffer) {
	for i := range buffer.info {
		info := &buffer.info[i]
		preserve := uint16(info.glyphProps) & font.GlyphPropsPreserve
		switch {
		case info.isLigature() || (info.glyphProps&font.GlyphClassLigature != 0):
			info.glyphProps = font.GlyphClassLigature | preserve
		case info.ligatedAndDidntMultiply():
			info.glyphProps = font.GlyphClassLigature | preserve
		case info.isUnicodeMark():
			info.glyphProps = font.GlyphClassMark | preserve
		case info.multiplied():
			info.glyphProps = font.GlyphClassBase | preserve
		default:
			info.glyphProps = font.GlyphClassBase | preserve
		}
	}
	buffer.scratchFlags |= scratchHasGlyphClasses
}

// propagateAttachmentOffsets turns the parent-relative offsets applyCursive
// and applyMarks left in attachChain/attachType into absolute ones, by
// walking each glyph up its attach chain and accumulating every ancestor's
// own offset (spec §4.5's "Attachment and mark positioning accumulation").
// Gated on scratchHasGPOSAttachment, since most shape calls never set it.
func propagateAttachmentOffsets(buffer *Buffer) {
	if buffer.scratchFlags&scratchHasGPOSAttachment == 0 {
		return
	}
	pos := buffer.pos
	n := len(pos)
	const (
		stateUnvisited = iota
		stateVisiting
		stateDone
	)
	state := make([]uint8, n)

	var resolve func(i int) (int32, int32)
	resolve = func(i int) (int32, int32) {
		if state[i] == stateDone || pos[i].attachChain == 0 {
			return pos[i].XOffset, pos[i].YOffset
		}
		parent := i + int(pos[i].attachChain)
		if parent < 0 || parent >= n || parent == i || state[i] == stateVisiting {
			state[i] = stateDone
			return pos[i].XOffset, pos[i].YOffset
		}
		state[i] = stateVisiting
		px, py := resolve(parent)
		pos[i].XOffset += px
		pos[i].YOffset += py
		state[i] = stateDone
		return pos[i].XOffset, pos[i].YOffset
	}

	for i := range pos {
		resolve(i)
	}
}

// applyLegacyKernTable drives a legacy 'kern' table over the whole
// buffer (spec §4.8 step 5's last-resort positioning backend). Unlike
// otMap.apply's lookups, applyLegacyKern does not advance buffer.idx
// itself (gpos.go: "GPOS is in-place"), so this loop advances it.
func applyLegacyKernTable(face *font.Face, buffer *Buffer) {
	k := face.Tables.Kern()
	if len(k) == 0 {
		return
	}
	c := &applyContext{}
	c.reset(1, face, buffer)
	buffer.idx = 0
	for buffer.idx < len(buffer.info) {
		c.applySubtable(k)
		buffer.idx++
	}
	buffer.idx = 0
}

// propagateFlags spreads MaskUnsafeToBreak/MaskUnsafeToConcat across a
// whole cluster whenever any one glyph in it carries the bit: callers
// slice buffers at cluster boundaries, so every glyph sharing a cluster
// needs to agree on whether that boundary is safe (spec §8).
func propagateFlags(buffer *Buffer) {
	if buffer.scratchFlags&(scratchHasUnsafeToBreak|scratchHasUnsafeToConcat) == 0 {
		return
	}
	info := buffer.info
	start := 0
	for start < len(info) {
		end := start + 1
		for end < len(info) && info[end].Cluster == info[start].Cluster {
			end++
		}
		var mask Mask
		for i := start; i < end; i++ {
			mask |= info[i].Mask & (MaskUnsafeToBreak | MaskUnsafeToConcat)
		}
		if mask != 0 {
			for i := start; i < end; i++ {
				info[i].Mask |= mask
			}
		}
		start = end
	}
}

// GlyphBuffer is the finished, read-only shaped output (spec §3's
// GlyphBuffer): parallel GlyphInfo/GlyphPosition slices plus whatever
// Serialize needs to render them back as text.
type GlyphBuffer struct {
	infos     []GlyphInfo
	positions []GlyphPosition
	failed    bool
}

func (g *GlyphBuffer) GlyphInfos() []GlyphInfo         { return g.infos }
func (g *GlyphBuffer) GlyphPositions() []GlyphPosition { return g.positions }
func (g *GlyphBuffer) Failed() bool                    { return g.failed }

// SerializeFlags controls which fields Serialize prints per glyph (spec
// §6's serialization grammar).
type SerializeFlags uint32

const (
	SerializeNoClusters SerializeFlags = 1 << iota
	SerializeNoPositions
	SerializeNoAdvances
	SerializeNoMasks
	// SerializeGlyphExtents opts into printing each glyph's ink bounding
	// box, the one field Serialize omits by default.
	SerializeGlyphExtents
)

// Serialize renders the buffer in the format spec §6 defines:
// name(=cluster)?(@x,y)?(+adv(,yadv)?)?(#mask)?(<xBearing,yBearing,width,height>)?
// glyph entries separated by '|'.
func (g *GlyphBuffer) Serialize(face *font.Face, flags SerializeFlags) string {
	var b strings.Builder
	for i := range g.infos {
		if i != 0 {
			b.WriteByte('|')
		}
		info := g.infos[i]
		pos := g.positions[i]
		fmt.Fprintf(&b, "gid%d", info.Glyph)
		if flags&SerializeNoClusters == 0 {
			fmt.Fprintf(&b, "=%d", info.Cluster)
		}
		if flags&SerializeNoPositions == 0 && (pos.XOffset != 0 || pos.YOffset != 0) {
			fmt.Fprintf(&b, "@%d,%d", pos.XOffset, pos.YOffset)
		}
		if flags&SerializeNoAdvances == 0 {
			if pos.YAdvance != 0 {
				fmt.Fprintf(&b, "+%d,%d", pos.XAdvance, pos.YAdvance)
			} else {
				fmt.Fprintf(&b, "+%d", pos.XAdvance)
			}
		}
		if flags&SerializeNoMasks == 0 && info.Mask&maskFlagsDefined != 0 {
			fmt.Fprintf(&b, "#%x", info.Mask&maskFlagsDefined)
		}
		if flags&SerializeGlyphExtents != 0 && face != nil {
			if ext, ok := face.Tables.GlyphExtents(info.Glyph); ok {
				fmt.Fprintf(&b, "<%d,%d,%d,%d>", ext.XBearing, ext.YBearing, ext.Width, ext.Height)
			}
		}
	}
	return b.String()
}

// ParseFeature parses spec §6's feature string grammar:
// [+-]?tag(=value)?([start:end])?. A bare tag means "enable" (value 1);
// a leading '-' means "disable" (value 0); '=value' sets an explicit
// value for an indexed feature such as a stylistic set.
func ParseFeature(s string) (Feature, error) {
	var f Feature
	value := uint32(1)

	switch {
	case strings.HasPrefix(s, "-"):
		value = 0
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return f, fmt.Errorf("shaping: malformed feature range in %q", s)
		}
		rangePart := s[i+1 : len(s)-1]
		s = s[:i]
		start, end, err := parseFeatureRange(rangePart)
		if err != nil {
			return f, err
		}
		f.Start, f.End = start, end
	}

	if i := strings.IndexByte(s, '='); i >= 0 {
		v, err := strconv.ParseUint(s[i+1:], 10, 32)
		if err != nil {
			return f, fmt.Errorf("shaping: bad feature value in %q: %w", s, err)
		}
		value = uint32(v)
		s = s[:i]
	}

	if len(s) == 0 || len(s) > 4 {
		return f, fmt.Errorf("shaping: invalid feature tag %q", s)
	}

	f.Tag = font.NewTag(s)
	f.Value = value
	return f, nil
}

func parseFeatureRange(s string) (start, end int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("shaping: malformed feature range %q", s)
	}
	if parts[0] != "" {
		start, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("shaping: bad feature range start %q: %w", parts[0], err)
		}
	}
	if parts[1] != "" {
		end, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("shaping: bad feature range end %q: %w", parts[1], err)
		}
	}
	return start, end, nil
}

// ParseVariation parses spec §6's variation string grammar: tag=value.
func ParseVariation(s string) (font.Variation, error) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return font.Variation{}, fmt.Errorf("shaping: malformed variation %q", s)
	}
	tag := s[:i]
	if len(tag) == 0 || len(tag) > 4 {
		return font.Variation{}, fmt.Errorf("shaping: invalid variation tag %q", tag)
	}
	v, err := strconv.ParseFloat(s[i+1:], 32)
	if err != nil {
		return font.Variation{}, fmt.Errorf("shaping: bad variation value in %q: %w", s, err)
	}
	return font.Variation{Tag: font.NewTag(tag), Value: float32(v)}, nil
}
