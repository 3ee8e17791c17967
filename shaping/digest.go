package shaping

import "github.com/inkwell/shaping/font"

// setDigest is a 3-hash Bloom-like filter over a glyph id set, used by
// the apply engine to reject "this lookup cannot possibly match here"
// in O(1) before paying for a real coverage binary search (spec §4.9
// "fast coverage rejection"). Ported from the teacher's set_digest.go.
const maskBits = 4 * 8

type digestBits uint32

func maskFor(g GID, shift uint) digestBits {
	return 1 << ((uint32(g) >> shift) & (maskBits - 1))
}

func (d *digestBits) add(g GID, shift uint) { *d |= maskFor(g, shift) }

func (d *digestBits) addRange(a, b GID, shift uint) {
	if (uint32(b)>>shift)-(uint32(a)>>shift) >= maskBits-1 {
		*d = ^digestBits(0)
		return
	}
	mb := maskFor(b, shift)
	ma := maskFor(a, shift)
	var op digestBits
	if mb < ma {
		op = 1
	}
	*d |= mb + (mb - ma) - op
}

func (d *digestBits) addArray(arr []GID) {
	for _, g := range arr {
		d.add(g, 0)
	}
}

func (d digestBits) mayHave(g GID, shift uint) bool { return d&maskFor(g, shift) != 0 }

const (
	digestShift0 = 4
	digestShift1 = 0
	digestShift2 = 9
)

type setDigest [3]digestBits

func (sd *setDigest) add(g GID) {
	sd[0].add(g, digestShift0)
	sd[1].add(g, digestShift1)
	sd[2].add(g, digestShift2)
}

func (sd *setDigest) addRange(a, b GID) {
	sd[0].addRange(a, b, digestShift0)
	sd[1].addRange(a, b, digestShift1)
	sd[2].addRange(a, b, digestShift2)
}

func (sd setDigest) mayHave(g GID) bool {
	return sd[0].mayHave(g, digestShift0) && sd[1].mayHave(g, digestShift1) && sd[2].mayHave(g, digestShift2)
}

// collectCoverage seeds the digest from a coverage table so the engine
// only pays binary-search cost for lookups that can plausibly apply.
func (sd *setDigest) collectCoverage(cov font.Coverage) {
	if cov == nil {
		return
	}
	for _, g := range cov.Glyphs() {
		sd.add(g)
	}
}
