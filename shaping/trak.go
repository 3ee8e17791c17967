package shaping

import "github.com/inkwell/shaping/font"

// applyTrak adds the font's 'trak' tracking adjustment to every glyph's
// advance (spec's optional letter-spacing pass, gated by plan.applyTrak).
// Grounded on rustybuzz's aat/tracking.rs, itself linear interpolation
// over the track table's (size,value) pairs at the face's point size.
func applyTrak(face *font.Face, buffer *Buffer) {
	trak := face.Tables.Trak()
	if trak == nil || len(buffer.pos) == 0 || face.Ptem == 0 {
		return
	}

	vertical := buffer.Props.Direction.IsVertical()
	data := &trak.Horizontal
	if vertical {
		data = &trak.Vertical
	}
	if len(data.Tracks) == 0 {
		return
	}

	v := interpolateTrack(data.Tracks[0], face.Ptem)
	if v == 0 {
		return
	}

	for i := range buffer.pos {
		if vertical {
			buffer.pos[i].YAdvance += face.VScale(int32(v))
		} else {
			buffer.pos[i].XAdvance += face.HScale(int32(v))
		}
	}
}

// interpolateTrack linearly interpolates entry's per-size track values at
// ptem, clamping to the table's first/last entry outside its range.
func interpolateTrack(entry font.TrackEntry, ptem float32) float32 {
	n := len(entry.Sizes)
	if n == 0 || len(entry.Values) != n {
		return 0
	}
	if ptem <= entry.Sizes[0] {
		return float32(entry.Values[0])
	}
	if ptem >= entry.Sizes[n-1] {
		return float32(entry.Values[n-1])
	}
	for i := 1; i < n; i++ {
		if ptem <= entry.Sizes[i] {
			lo, hi := entry.Sizes[i-1], entry.Sizes[i]
			t := (ptem - lo) / (hi - lo)
			return float32(entry.Values[i-1]) + t*float32(entry.Values[i]-entry.Values[i-1])
		}
	}
	return float32(entry.Values[n-1])
}
