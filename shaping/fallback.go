package shaping

import "github.com/inkwell/shaping/font"

// Fallback positioning (spec §4.10, C10): synthesizes mark attachment
// when a font supplies neither GPOS mark/mkmk nor AAT kerx anchors, so a
// bare cmap-only font still places combining marks somewhere plausible
// instead of stacking them at the origin. No direct teacher file grounds
// this (ot_shaper.go's fallback_mark_position is in a file this pack did
// not retrieve); the centering-over-glyph-extents approach here follows
// the same idea described in spec §4.10, see DESIGN.md.

// fallbackMarkPositionRecategorizeMarks re-tags marks with a synthetic
// GDEF mark class derived from their Unicode category, so a font with no
// GDEF table at all still lets the rest of the pipeline tell marks from
// base glyphs (spec §4.10).
func fallbackMarkPositionRecategorizeMarks(buffer *Buffer) {
	for i := range buffer.info {
		if buffer.info[i].isUnicodeMark() {
			buffer.info[i].glyphProps |= font.GlyphClassMark
		}
	}
}

// fallbackMarkPosition walks each cluster's marks back to their base and
// centers every mark over the base's bounding box, zeroing the mark's own advance so it
// doesn't additionally displace whatever follows it.
func fallbackMarkPosition(face *font.Face, buffer *Buffer) {
	info := buffer.info
	pos := buffer.pos
	if len(info) == 0 {
		return
	}

	base := 0
	for i := 0; i < len(info); i++ {
		if !info[i].isUnicodeMark() {
			base = i
			continue
		}
		baseExt, _ := face.Tables.GlyphExtents(info[base].Glyph)
		markExt, _ := face.Tables.GlyphExtents(info[i].Glyph)

		baseX := baseExt.XBearing + baseExt.Width/2
		baseY := baseExt.YBearing + baseExt.Height
		markX := markExt.XBearing + markExt.Width/2

		var advanceBetween int32
		for k := base; k < i; k++ {
			advanceBetween += pos[k].XAdvance
		}

		pos[i].XOffset = face.HScale(baseX-markX) - advanceBetween
		pos[i].YOffset = face.VScale(baseY)
		pos[i].XAdvance = 0
		pos[i].YAdvance = 0
		pos[i].attachType = attachTypeMark
		pos[i].attachChain = int16(base - i)
	}
	buffer.scratchFlags |= scratchHasGPOSAttachment
}
