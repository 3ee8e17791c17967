package shaping

import "github.com/inkwell/shaping/font"

// AAT morx/kerx driver (spec's Apple Advanced Typography state-machine
// path, used instead of GSUB/GPOS when the shape plan picks applyMorx/
// applyKerx). Grounded on the teacher's ot_aat_layout.go stateTableDriver
// loop, adapted from its driverContext-interface design to one small
// function per subtable kind against this repo's font.AATStateTable.
//
// Each driver below walks (state,class) transitions the same way:
// consult the table at the current glyph's class, act on the entry's
// payload, move to the next state, and advance the cursor unless the
// entry requests otherwise. Subtable kinds that can change the glyph
// count (ligature, insertion) rebuild the output half like the GSUB
// engine does; kinds that don't (rearrangement, contextual,
// non-contextual) mutate in place.

// aatDeletedGlyph marks a glyph consumed by a ligature action; removed
// from the buffer in one pass after the whole morx chain runs, mirroring
// the teacher's aatLayoutRemoveDeletedGlyphs.
const aatDeletedGlyph GID = 0xFFFF

const (
	aatMarkLast      uint16 = 0x2000
	aatVerbMask      uint16 = 0x000F
	aatPerformAction uint16 = 0x2000
)

func classOf(m font.AATStateTable, buffer *Buffer) uint16 {
	if buffer.idx >= len(buffer.info) {
		return font.AATClassEndOfText
	}
	if m.ClassOf == nil {
		return font.AATClassOutOfBounds
	}
	return m.ClassOf(buffer.info[buffer.idx].Glyph)
}

// applyMorx runs every subtable of every chain over buffer, then removes
// glyphs the ligature driver marked deleted (spec §4.6).
func applyMorx(chains []font.MorxChain, buffer *Buffer) {
	for _, chain := range chains {
		for _, sub := range chain.Subtables {
			buffer.idx = 0
			switch sub.Kind {
			case font.MorxNonContextual:
				applyMorxNonContextual(sub.NonContextual, buffer)
			case font.MorxRearrangement:
				applyMorxRearrangement(sub.Rearrangement, buffer)
			case font.MorxContextual:
				applyMorxContextual(sub.Contextual, buffer)
			case font.MorxLigature:
				applyMorxLigature(sub.Ligature, buffer)
			case font.MorxInsertion:
				applyMorxInsertion(sub.Insertion, buffer)
			}
		}
	}
	buffer.idx = 0
	removeDeletedGlyphs(buffer)
}

func removeDeletedGlyphs(buffer *Buffer) {
	buffer.clearOutput()
	for buffer.idx < len(buffer.info) {
		if buffer.info[buffer.idx].Glyph == aatDeletedGlyph {
			buffer.idx++
			continue
		}
		buffer.nextGlyph()
	}
	buffer.swapBuffers()
}

func applyMorxNonContextual(data font.MorxNonContextualData, buffer *Buffer) {
	for i := range buffer.info {
		if g, ok := data.Substitution[buffer.info[i].Glyph]; ok {
			buffer.info[i].Glyph = g
			buffer.info[i].glyphProps |= font.GlyphPropsSubstituted
		}
	}
}

// applyMorxRearrangement drives the 16-verb rearrangement machine (spec
// §4.6). Verbs 1-3 (moving the single glyph at the mark and/or current
// position across the glyphs between them) are applied exactly; verbs
// 4-15, which rearrange 2-glyph A/B and C/D groups, collapse to a full
// reversal of the marked span.
func applyMorxRearrangement(data font.MorxRearrangementData, buffer *Buffer) {
	mark, haveMark := 0, false
	state := 0
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		verb := entry.Flags & aatVerbMask
		if verb != 0 && haveMark && buffer.idx < len(buffer.info) && buffer.idx > mark {
			rearrangeSpan(buffer.info, mark, buffer.idx, verb)
		}
		if entry.Flags&font.AATFlagSetMark != 0 {
			mark, haveMark = buffer.idx, true
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.idx++
		}
	}
	buffer.idx = 0
}

func rearrangeSpan(info []GlyphInfo, mark, current int, verb uint16) {
	span := info[mark : current+1]
	switch verb {
	case 1: // Ax => xA
		if len(span) >= 2 {
			a := span[0]
			copy(span, span[1:])
			span[len(span)-1] = a
		}
	case 2: // xD => Dx
		if len(span) >= 2 {
			d := span[len(span)-1]
			copy(span[1:], span[:len(span)-1])
			span[0] = d
		}
	case 3: // AxD => DxA
		if len(span) >= 3 {
			span[0], span[len(span)-1] = span[len(span)-1], span[0]
		}
	default:
		for i, j := 0, len(span)-1; i < j; i, j = i+1, j-1 {
			span[i], span[j] = span[j], span[i]
		}
	}
}

// applyMorxContextual applies per-state glyph substitution lookups at
// the marked and current positions (spec §4.6).
func applyMorxContextual(data font.MorxContextualData, buffer *Buffer) {
	state := 0
	markIdx := -1
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		payload := int(entry.Payload)

		if markIdx >= 0 && payload < len(data.MarkLookup) && data.MarkLookup[payload] != nil {
			if g, ok := data.MarkLookup[payload][buffer.info[markIdx].Glyph]; ok {
				buffer.info[markIdx].Glyph = g
				buffer.info[markIdx].glyphProps |= font.GlyphPropsSubstituted
			}
		}
		if buffer.idx < len(buffer.info) && payload < len(data.CurrentLookup) && data.CurrentLookup[payload] != nil {
			if g, ok := data.CurrentLookup[payload][buffer.info[buffer.idx].Glyph]; ok {
				buffer.info[buffer.idx].Glyph = g
				buffer.info[buffer.idx].glyphProps |= font.GlyphPropsSubstituted
			}
		}
		if entry.Flags&font.AATFlagSetMark != 0 {
			markIdx = buffer.idx
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.idx++
		}
	}
	buffer.idx = 0
}

// applyMorxLigature drives the component-stack ligature machine (spec
// §4.6): SetMark pushes the current position, PerformAction pops
// components off the stack per the action list until one is marked
// Last, accumulating a ligature-table index the way Apple's format
// encodes it (component value keyed by action offset + glyph id).
func applyMorxLigature(data font.MorxLigatureData, buffer *Buffer) {
	var stack []int
	state := 0
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		if entry.Flags&font.AATFlagSetMark != 0 {
			stack = append(stack, buffer.idx)
		}
		if entry.Flags&aatPerformAction != 0 && len(stack) > 0 {
			performLigatureAction(data, buffer, &stack, int(entry.Payload))
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.idx++
		}
	}
	buffer.idx = 0
}

func performLigatureAction(data font.MorxLigatureData, buffer *Buffer, stack *[]int, actionIndex int) {
	sum := 0
	var comps []int
	for actionIndex < len(data.Actions) && len(*stack) > 0 {
		n := len(*stack) - 1
		idx := (*stack)[n]
		*stack = (*stack)[:n]

		act := data.Actions[actionIndex]
		compOffset := int(act.Offset) + int(buffer.info[idx].Glyph)
		if compOffset >= 0 && compOffset < len(data.Components) {
			sum += int(data.Components[compOffset])
		}
		comps = append(comps, idx)

		last := act.Last
		actionIndex++
		if act.Store || last {
			flushLigature(data, buffer, comps, sum)
			sum, comps = 0, nil
		}
		if last {
			break
		}
	}
}

func flushLigature(data font.MorxLigatureData, buffer *Buffer, comps []int, sum int) {
	if sum < 0 || sum >= len(data.Ligatures) || len(comps) == 0 {
		return
	}
	base := comps[0]
	for _, c := range comps {
		if c < base {
			base = c
		}
	}
	lig := data.Ligatures[sum]
	buffer.info[base].Glyph = lig
	buffer.info[base].glyphProps |= font.GlyphPropsSubstituted | font.GlyphPropsLigated
	ligID := buffer.allocateLigID()
	buffer.info[base].setLigPropsForLigature(ligID, uint8(len(comps)))
	for n, c := range comps {
		if c == base {
			continue
		}
		buffer.info[c].Glyph = aatDeletedGlyph
		buffer.info[c].setLigPropsForMark(ligID, uint8(n+1))
	}
}

// applyMorxInsertion splices precomputed glyph runs before/after the
// cursor as the state machine dictates (spec §4.6); Inserted is indexed
// directly by AATStateEntry.Payload, already resolved from the font's
// insertion-glyph table.
func applyMorxInsertion(data font.MorxInsertionData, buffer *Buffer) {
	state := 0
	buffer.clearOutput()
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		payload := int(entry.Payload)
		if payload >= 0 && payload < len(data.Inserted) {
			cluster := 0
			switch {
			case buffer.idx < len(buffer.info):
				cluster = buffer.info[buffer.idx].Cluster
			case len(buffer.outInfo) > 0:
				cluster = buffer.outInfo[len(buffer.outInfo)-1].Cluster
			}
			for _, g := range data.Inserted[payload] {
				buffer.outputInfo(GlyphInfo{Glyph: g, Cluster: cluster})
			}
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.nextGlyph()
		}
	}
	buffer.swapBuffers()
}

// applyKerx runs every subtable whose orientation matches the buffer's
// direction (spec §4.6's kerx path, chosen over GPOS/legacy kern when
// the plan's applyKerx is set).
func applyKerx(kx *font.Kernx, face *font.Face, buffer *Buffer) {
	vertical := buffer.Props.Direction.IsVertical()
	for _, sub := range kx.Subtables {
		if sub.Vertical != vertical {
			continue
		}
		buffer.idx = 0
		switch sub.Kind {
		case font.KerxFormat1:
			applyKerxFormat1(sub.Format1, face, buffer)
		case font.KerxFormat4:
			applyKerxFormat4(sub.Format4, face, buffer)
		}
	}
	buffer.idx = 0
}

// applyKerxFormat1 is the stack-based kerning machine: each payload
// indexes a kern value applied between the glyph just before the
// current cursor and the current glyph (spec §4.6).
func applyKerxFormat1(data font.KerxFormat1Data, face *font.Face, buffer *Buffer) {
	horizontal := buffer.Props.Direction.IsHorizontal()
	state := 0
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		payload := int(entry.Payload)
		if payload < len(data.Values) && buffer.idx > 0 {
			v := int32(data.Values[payload])
			target := buffer.idx - 1
			if horizontal {
				buffer.pos[target].XAdvance += face.HScale(v)
			} else {
				buffer.pos[target].YAdvance += face.VScale(v)
			}
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.idx++
		}
	}
	buffer.idx = 0
}

// applyKerxFormat4 is anchor-point attachment, the kerx analogue of
// GPOS MarkBasePos (spec §4.6): the marked glyph is the attachment's
// parent, the current glyph is offset to align its anchor with it.
func applyKerxFormat4(data font.KerxFormat4Data, face *font.Face, buffer *Buffer) {
	state := 0
	markIdx := -1
	for buffer.idx <= len(buffer.info) {
		class := classOf(data.Machine, buffer)
		entry := data.Machine.Entry(state, class)
		payload := int(entry.Payload)
		if markIdx >= 0 && payload < len(data.Anchors) && buffer.idx < len(buffer.info) {
			a := data.Anchors[payload]
			buffer.pos[buffer.idx].XOffset += face.HScale(a.X)
			buffer.pos[buffer.idx].YOffset += face.VScale(a.Y)
			buffer.pos[buffer.idx].attachType = attachTypeMark
			buffer.pos[buffer.idx].attachChain = int16(markIdx - buffer.idx)
			buffer.scratchFlags |= scratchHasGPOSAttachment
		}
		if entry.Flags&font.AATFlagSetMark != 0 {
			markIdx = buffer.idx
		}
		state = int(entry.NewState)
		if buffer.idx >= len(buffer.info) {
			break
		}
		if entry.Flags&font.AATFlagDontAdvance == 0 {
			buffer.idx++
		}
	}
	buffer.idx = 0
}
