package shaping

import (
	"golang.org/x/text/language"

	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// ClusterLevel controls how Buffer merges character clusters across a
// substitution or deletion (spec §3 "cluster merging policy").
type ClusterLevel uint8

const (
	// MonotoneGraphemes keeps clusters in non-decreasing input order and
	// merges a cluster with its neighbor whenever a grapheme would
	// otherwise be split across two output clusters. The default.
	MonotoneGraphemes ClusterLevel = iota
	// MonotoneCharacters keeps clusters non-decreasing but never merges:
	// every original character index can surface as its own cluster.
	MonotoneCharacters
	// Characters assigns cluster values with no monotonicity guarantee,
	// mirroring the raw 1-to-1 input/output correspondence when possible.
	Characters
)

// content marks which half of GlyphInfo.codepoint/Glyph is authoritative.
type content uint8

const (
	contentUnicode content = iota
	contentGlyphs
)

// Buffer is the segmented glyph array the whole pipeline reads from and
// writes to: a Unicode codepoint sequence going in, a positioned glyph
// sequence coming out (spec §3). Operations mutate info/pos in place,
// growing out just ahead of the cursor the way a single-pass state
// machine must to stay allocation-free on the hot path.
type Buffer struct {
	info []GlyphInfo
	pos  []GlyphPosition

	// outInfo/outPos accumulate the result of the current pass while idx
	// walks info/pos; swapBuffers() exchanges them for the next pass.
	outInfo []GlyphInfo
	outPos  []GlyphPosition

	idx     int
	content content

	Props        font.SegmentProperties
	ClusterLevel ClusterLevel
	flags        BufferFlags

	// preContext/postContext are codepoints surrounding the run the
	// caller is shaping (e.g. the rest of a paragraph split across
	// several Shape calls), used to judge edge safety the way the full
	// text would (spec §3's context for incremental/streamed shaping).
	preContext, postContext []rune

	scratchFlags scratchFlags

	// unicodeProvider is stashed for the duration of one Shape call so
	// complex shapers whose setupMasks needs Unicode properties (Arabic
	// joining type, chiefly) can reach it without widening the
	// complexShaper interface's fixed method signatures.
	unicodeProvider unicodedata.Provider

	// MaxOps bounds total apply-engine iterations across the whole shape
	// call, so a maliciously nested context lookup cannot spin forever
	// (spec §4.5, §4.9 "termination under adversarial nesting").
	MaxOps int

	serial uint8 // ligature-id allocator; wraps, which is fine: ids only need local uniqueness
}

type scratchFlags uint32

const (
	scratchHasNonASCII scratchFlags = 1 << iota
	scratchHasDefaultIgnorables
	scratchHasSpaceFallback
	scratchHasGPOSAttachment
	scratchHasCGJ
	scratchHasGlyphClasses
	scratchHasGDEFMarkClasses
	scratchHasUnsafeToBreak
	scratchHasUnsafeToConcat
)

// NewBuffer returns an empty Buffer ready for Add.
func NewBuffer() *Buffer {
	return &Buffer{MaxOps: 0}
}

// SetFlags configures caller-visible shape options (spec §3).
func (b *Buffer) SetFlags(f BufferFlags) { b.flags = f }

// SetScript overrides the script GuessSegmentProperties would otherwise
// infer from the buffer's own codepoints (spec §3).
func (b *Buffer) SetScript(s font.Script) { b.Props.Script = s }

// SetDirection overrides the run's writing direction.
func (b *Buffer) SetDirection(d font.Direction) { b.Props.Direction = d }

// SetLanguage parses tag as a BCP 47 language tag via golang.org/x/text
// and stores its canonical form, matching the format the shaper's
// language-selection logic (otmap.go's selectLanguage) expects.
func (b *Buffer) SetLanguage(tag string) {
	parsed, err := language.Parse(tag)
	if err != nil {
		b.Props.Language = font.Language(tag)
		return
	}
	b.Props.Language = font.Language(parsed.String())
}

// SetClusterLevel picks the cluster-merging policy subsequent shaping
// passes use (spec §3).
func (b *Buffer) SetClusterLevel(level ClusterLevel) { b.ClusterLevel = level }

// SetPreContext/SetPostContext record the codepoints immediately
// surrounding this run in the caller's original text, when the run being
// shaped is a slice of a longer paragraph (spec §3).
func (b *Buffer) SetPreContext(r []rune)  { b.preContext = r }
func (b *Buffer) SetPostContext(r []rune) { b.postContext = r }

// ResetClusters renumbers every entry's Cluster to its own index,
// discarding whatever cluster values Add/AddString assigned; useful when
// a caller wants Characters-level granularity regardless of how it built
// the buffer (spec §3).
func (b *Buffer) ResetClusters() {
	for i := range b.info {
		b.info[i].Cluster = i
	}
}

// resetMasks seeds every entry's Mask with the plan's globally-enabled
// feature bits (spec §4.8's global_mask), the first step of mask setup
// before any per-range user feature or per-script shaper override.
func (b *Buffer) resetMasks(global Mask) {
	for i := range b.info {
		b.info[i].Mask = global
	}
}

// setMasks ORs value (already shifted into mask's bit position) into the
// Mask of every entry whose Cluster falls in [clusterStart,clusterEnd),
// clearing mask's bits everywhere else — how a caller's range-scoped
// Feature (spec §6's "[start:end]" syntax) is applied once the global
// mask has switched it on everywhere by default.
func (b *Buffer) setMasks(value, mask Mask, clusterStart, clusterEnd int) {
	for i := range b.info {
		c := b.info[i].Cluster
		if c < clusterStart || (clusterEnd != 0 && c >= clusterEnd) {
			b.info[i].Mask &^= mask
		} else {
			b.info[i].Mask = (b.info[i].Mask &^ mask) | (value & mask)
		}
	}
}

// Reset clears the buffer for reuse, keeping the backing arrays.
func (b *Buffer) Reset() {
	b.info = b.info[:0]
	b.pos = b.pos[:0]
	b.outInfo = b.outInfo[:0]
	b.outPos = b.outPos[:0]
	b.idx = 0
	b.content = contentUnicode
	b.Props = font.SegmentProperties{}
	b.scratchFlags = 0
	b.serial = 0
}

// Add appends a codepoint with the given originating cluster index.
func (b *Buffer) Add(cp rune, cluster int) {
	b.info = append(b.info, GlyphInfo{codepoint: cp, Cluster: cluster})
	b.pos = append(b.pos, GlyphPosition{})
	if cp >= 0x80 {
		b.scratchFlags |= scratchHasNonASCII
	}
}

// AddString appends every rune of s, clusters numbered by byte offset.
func (b *Buffer) AddString(s string) {
	for i, r := range s {
		b.Add(r, i)
	}
}

// Len reports the number of entries currently in the front half of the
// buffer (valid before Shape reassembles into the output half).
func (b *Buffer) Len() int { return len(b.info) }

// Info exposes the finished shaped glyph sequence; valid after Shape.
func (b *Buffer) Info() []GlyphInfo { return b.info }

// Pos exposes the finished glyph positions; valid after Shape, parallel to Info().
func (b *Buffer) Pos() []GlyphPosition { return b.pos }

// GuessSegmentProperties fills in any of Direction/Script/Language the
// caller left zero-valued, from the buffer's own content (spec §3).
func (b *Buffer) GuessSegmentProperties(u unicodedata.Provider) {
	if b.Props.Script == font.ScriptUnknown || b.Props.Script == 0 {
		b.Props.Script = font.ScriptCommon
		for _, info := range b.info {
			s := u.Script(info.codepoint)
			if s != font.ScriptCommon && s != font.ScriptInherited {
				b.Props.Script = s
				break
			}
		}
	}
	if !b.Props.Direction.IsValid() {
		b.Props.Direction = horizontalDirection(b.Props.Script)
	}
	if b.Props.Language == "" {
		b.Props.Language = "und"
	}
}

// horizontalDirection is the script's default writing direction absent
// an explicit caller override (vertical direction is never guessed,
// matching the teacher's behavior).
func horizontalDirection(s font.Script) font.Direction {
	switch s {
	case font.ScriptArabic, font.ScriptHebrew, font.NewScript("Syrc"), font.NewScript("Thaa"),
		font.NewScript("Nkoo"), font.NewScript("Samr"), font.NewScript("Mand"), font.NewScript("Adlm"):
		return font.RightToLeft
	default:
		return font.LeftToRight
	}
}

// clearOutput rewinds the output half of the buffer so the next pass
// starts writing at position 0, while idx keeps walking the input half.
func (b *Buffer) clearOutput() {
	b.outInfo = b.outInfo[:0]
	b.outPos = b.outPos[:0]
	b.content = contentGlyphs
	b.idx = 0
}

// swapBuffers exchanges info/pos with outInfo/outPos, ending a pass.
func (b *Buffer) swapBuffers() {
	b.syncSoFar()
	b.info, b.outInfo = b.outInfo, b.info
	b.pos, b.outPos = b.outPos, b.pos
	b.idx = 0
}

// syncSoFar appends whatever the current pass has not yet flushed.
func (b *Buffer) syncSoFar() {
	if b.idx < len(b.info) {
		b.outInfo = append(b.outInfo, b.info[b.idx:]...)
		b.outPos = append(b.outPos, b.pos[b.idx:]...)
		b.idx = len(b.info)
	}
}

func (b *Buffer) curInfo(offset int) *GlyphInfo { return &b.info[b.idx+offset] }
func (b *Buffer) curPos(offset int) *GlyphPosition { return &b.pos[b.idx+offset] }

// backtrackLen/lookaheadLen measure the already-output prefix and the
// not-yet-consumed suffix relative to idx, the two halves context
// matching walks outward into (spec §4.4).
func (b *Buffer) backtrackLen() int  { return len(b.outInfo) }
func (b *Buffer) lookaheadLen() int  { return len(b.info) - b.idx }

// moveTo repositions idx to logical position i in the backtrack+lookahead
// timeline, shuttling entries between outInfo and info as needed so a
// recursed lookup can be applied starting exactly at a match position
// (spec §4.5 "recursion bookkeeping"). Ported from harfbuzz's
// buffer_t::move_to, adapted to this engine's separate-slice buffer.
func (b *Buffer) moveTo(i int) {
	outLen := len(b.outInfo)
	switch {
	case outLen < i:
		count := i - outLen
		b.outInfo = append(b.outInfo, b.info[b.idx:b.idx+count]...)
		b.outPos = append(b.outPos, b.pos[b.idx:b.idx+count]...)
		b.idx += count
	case outLen > i:
		count := outLen - i
		start := b.idx - count
		copy(b.info[start:b.idx], b.outInfo[outLen-count:outLen])
		copy(b.pos[start:b.idx], b.outPos[outLen-count:outLen])
		b.outInfo = b.outInfo[:outLen-count]
		b.outPos = b.outPos[:outLen-count]
		b.idx = start
	}
}

// allocateLigID hands out a fresh, locally-unique ligature id; wrapping
// is harmless since ids are only compared for equality within a single
// shape call's live glyph set.
func (b *Buffer) allocateLigID() uint8 {
	b.serial++
	if b.serial == 0 {
		b.serial = 1
	}
	return b.serial
}

// replaceGlyphIndex overwrites the current entry's glyph id in place,
// without advancing idx (the caller advances explicitly via nextGlyph,
// skipGlyph, or the ligation loop in gsub.go).
func (b *Buffer) replaceGlyphIndex(g GID) { b.info[b.idx].Glyph = g }

// logicalAt indexes the concatenation of outInfo followed by info[idx:],
// the coordinate space unsafeToBreak/unsafeToConcatFromOutbuffer and the
// chain-context backtrack/lookahead matchers operate in.
func (b *Buffer) logicalAt(p int) *GlyphInfo {
	if p < len(b.outInfo) {
		return &b.outInfo[p]
	}
	return &b.info[b.idx+p-len(b.outInfo)]
}

func (b *Buffer) logicalLen() int { return len(b.outInfo) + b.lookaheadLen() }

func (b *Buffer) unsafeToBreakFromOutbuffer(start, end int) {
	if end-start < 2 {
		return
	}
	cluster := b.logicalAt(start).Cluster
	for i := start + 1; i < end && i < b.logicalLen(); i++ {
		if c := b.logicalAt(i).Cluster; c < cluster {
			cluster = c
		}
	}
	for i := start; i < end && i < b.logicalLen(); i++ {
		if b.logicalAt(i).Cluster != cluster {
			b.logicalAt(i).Mask |= MaskUnsafeToBreak
		}
	}
	b.scratchFlags |= scratchHasUnsafeToBreak
}

func (b *Buffer) unsafeToConcatFromOutbuffer(start, end int) {
	for i := start; i < end && i < b.logicalLen(); i++ {
		b.logicalAt(i).Mask |= MaskUnsafeToConcat
	}
	b.scratchFlags |= scratchHasUnsafeToConcat
}

// digest summarizes every glyph currently in the buffer (both halves),
// used to fast-reject lookups whose coverage cannot overlap at all.
func (b *Buffer) digest() setDigest {
	var sd setDigest
	for i := range b.outInfo {
		sd.add(b.outInfo[i].Glyph)
	}
	for i := b.idx; i < len(b.info); i++ {
		sd.add(b.info[i].Glyph)
	}
	return sd
}

// nextGlyph copies info[idx] (and its pos) to the output verbatim and
// advances idx, the "no substitution happened here" case.
func (b *Buffer) nextGlyph() {
	b.outInfo = append(b.outInfo, b.info[b.idx])
	b.outPos = append(b.outPos, b.pos[b.idx])
	b.idx++
}

// nextGlyphs is nextGlyph for a run, used when a lookup's input sequence
// matched with no net change.
func (b *Buffer) nextGlyphs(n int) {
	b.outInfo = append(b.outInfo, b.info[b.idx:b.idx+n]...)
	b.outPos = append(b.outPos, b.pos[b.idx:b.idx+n]...)
	b.idx += n
}

// skipGlyph advances idx past info[idx] without copying it to the output;
// ligateInput uses it to drop the components a ligature consumed.
func (b *Buffer) skipGlyph() { b.idx++ }

// replaceGlyph overwrites info[idx].Glyph, used for 1-to-1 GSUB.
func (b *Buffer) replaceGlyph(g GID) {
	info := &b.info[b.idx]
	info.glyphProps |= font.GlyphPropsSubstituted
	info.Glyph = g
	b.nextGlyph()
}

// outputGlyph appends a brand-new entry cloned from info[idx] (cluster,
// mask, unicode props) but carrying glyph g — the single-input,
// single-output-among-many case used by multiple/ligature substitution.
func (b *Buffer) outputGlyph(g GID) *GlyphInfo {
	info := b.info[b.idx]
	info.Glyph = g
	info.glyphProps |= font.GlyphPropsSubstituted
	b.outInfo = append(b.outInfo, info)
	b.outPos = append(b.outPos, GlyphPosition{})
	return &b.outInfo[len(b.outInfo)-1]
}

// outputInfo appends a synthesized entry without consuming any input,
// used by the normalizer when a decomposition introduces a codepoint
// that was never one of the original input entries.
func (b *Buffer) outputInfo(info GlyphInfo) *GlyphInfo {
	b.outInfo = append(b.outInfo, info)
	b.outPos = append(b.outPos, GlyphPosition{})
	return &b.outInfo[len(b.outInfo)-1]
}

// replaceGlyphs implements many-to-one substitution (ligation): consume
// numIn input entries and emit one output entry for glyph g, merging
// their clusters (spec §4.5). It does not touch any mark's lig-id or
// component; that relabelling is done by ligateInput in gsub.go.
func (b *Buffer) replaceGlyphs(numIn int, g GID) {
	b.mergeClusters(b.idx, b.idx+numIn)
	info := b.info[b.idx]
	info.Glyph = g
	info.glyphProps |= font.GlyphPropsSubstituted | font.GlyphPropsLigated
	b.outInfo = append(b.outInfo, info)
	b.outPos = append(b.outPos, GlyphPosition{})
	b.idx += numIn
}

// mergeClusters assigns every entry in info[start:end) the minimum
// Cluster value among them, per ClusterLevel (spec §3). MonotoneCharacters
// leaves the range untouched; Characters leaves clusters as they are and
// marks every entry above the minimum unsafe to break instead.
func (b *Buffer) mergeClusters(start, end int) {
	if end-start < 2 {
		return
	}
	if b.ClusterLevel == MonotoneCharacters {
		return
	}
	cluster := b.info[start].Cluster
	for i := start + 1; i < end; i++ {
		if c := b.info[i].Cluster; c < cluster {
			cluster = c
		}
	}
	// Extend left/right across any run in the current full array sharing
	// the same cluster as an endpoint, so a later merge of neighbors
	// cannot split a grapheme the previous pass already glued together.
	for start != 0 && b.info[start-1].Cluster == b.info[start].Cluster {
		start--
	}
	for end < len(b.info) && b.info[end].Cluster == b.info[end-1].Cluster {
		end++
	}
	for i := start; i < end; i++ {
		if b.ClusterLevel == Characters {
			if b.info[i].Cluster > cluster {
				b.info[i].Mask |= MaskUnsafeToBreak
			}
		} else {
			b.info[i].Cluster = cluster
		}
	}
}

// mergeOutClusters is mergeClusters applied to the tail of outInfo,
// used when a lookahead/backtrack match spans glyphs already flushed to
// the output half.
func (b *Buffer) mergeOutClusters(start, end int) {
	if end-start < 2 || b.ClusterLevel == MonotoneCharacters {
		return
	}
	if end > len(b.outInfo) {
		end = len(b.outInfo)
	}
	if start >= end {
		return
	}
	cluster := b.outInfo[start].Cluster
	for i := start + 1; i < end; i++ {
		if c := b.outInfo[i].Cluster; c < cluster {
			cluster = c
		}
	}
	for i := start; i < end; i++ {
		if b.ClusterLevel == Characters {
			if b.outInfo[i].Cluster > cluster {
				b.outInfo[i].Mask |= MaskUnsafeToBreak
			}
			continue
		}
		b.outInfo[i].Cluster = cluster
	}
}

// deleteGlyph drops the entry at idx from the output entirely without
// orphaning its cluster: if the following input entry already shares its
// cluster the cluster survives there untouched; otherwise it is merged
// backward into the already-flushed output tail, or failing that forward
// into the next input entry. Mirrors the teacher's hb_buffer_t::delete_glyph.
func (b *Buffer) deleteGlyph() {
	cluster := b.info[b.idx].Cluster
	switch {
	case b.idx+1 < len(b.info) && b.info[b.idx+1].Cluster == cluster:
		// cluster survives via the next input entry.
	case len(b.outInfo) > 0:
		last := len(b.outInfo) - 1
		if cluster < b.outInfo[last].Cluster {
			oldCluster := b.outInfo[last].Cluster
			for i := last; i >= 0 && b.outInfo[i].Cluster == oldCluster; i-- {
				b.outInfo[i].Cluster = cluster
			}
		}
	case b.idx+1 < len(b.info):
		b.mergeClusters(b.idx, b.idx+2)
	}
	b.idx++
}

// unsafeToBreak marks the entries of [start,end) whose cluster differs
// from the range's minimum cluster as unsafe to break before (spec §8):
// slicing the shaped output there and re-shaping each half independently
// might not reproduce the original glyphs. Entries already in the
// minimum cluster are left unmarked. Used after contextual
// substitution/positioning.
func (b *Buffer) unsafeToBreak(start, end int) {
	if end-start < 2 {
		return
	}
	cluster := b.info[start].Cluster
	for i := start + 1; i < end; i++ {
		if c := b.info[i].Cluster; c < cluster {
			cluster = c
		}
	}
	b.setUnsafeToBreakRange(start, end, cluster)
}

func (b *Buffer) setUnsafeToBreakRange(start, end int, cluster int) {
	for i := start; i < end; i++ {
		if b.info[i].Cluster != cluster {
			b.info[i].Mask |= MaskUnsafeToBreak
		}
	}
	b.scratchFlags |= scratchHasUnsafeToBreak
}

// unsafeToConcat marks [start,end) unsafe to reassemble from
// independently shaped pieces (spec §8): distinct from unsafe-to-break
// because it also covers cross-run interactions like Arabic joining at
// a caller-imposed boundary, not only lookup-internal context.
func (b *Buffer) unsafeToConcat(start, end int) {
	for i := start; i < end && i < len(b.info); i++ {
		b.info[i].Mask |= MaskUnsafeToConcat
	}
	b.scratchFlags |= scratchHasUnsafeToConcat
}

// Reverse flips the entire buffer end for end, used to present RTL runs
// in visual (left-to-right-storage) order after shaping.
func (b *Buffer) Reverse() { b.ReverseRange(0, len(b.info)) }

// ReverseRange flips info[start:end) and pos[start:end) in place.
func (b *Buffer) ReverseRange(start, end int) {
	for i, j := start, end-1; i < j; i, j = i+1, j-1 {
		b.info[i], b.info[j] = b.info[j], b.info[i]
		b.pos[i], b.pos[j] = b.pos[j], b.pos[i]
	}
}

// reverseGraphemes reverses glyph order within each cluster run while
// keeping the runs themselves in their current order — used to undo
// Reverse's effect on multi-glyph clusters (ligatures, marks) whose
// internal storage order must stay logical.
func (b *Buffer) reverseGraphemes() {
	start := 0
	for start < len(b.info) {
		end := start + 1
		for end < len(b.info) && b.info[end].Cluster == b.info[start].Cluster {
			end++
		}
		b.ReverseRange(start, end)
		start = end
	}
}

// sortByCluster stable-sorts info/pos by Cluster. Nothing in the shaping
// pipeline calls it; the reverse-chaining GSUB pass substitutes in place
// and never needs re-sorting.
func (b *Buffer) sortByCluster() {
	// insertion sort: buffers are short, changes are local, and this
	// keeps ligature/mark ordering within a cluster stable.
	for i := 1; i < len(b.info); i++ {
		j := i
		for j > 0 && b.info[j-1].Cluster > b.info[j].Cluster {
			b.info[j-1], b.info[j] = b.info[j], b.info[j-1]
			b.pos[j-1], b.pos[j] = b.pos[j], b.pos[j-1]
			j--
		}
	}
}

func (b *Buffer) hasUnsafeToConcat() bool { return b.scratchFlags&scratchHasUnsafeToConcat != 0 }
