package font

import "testing"

func TestCoverageListIndex(t *testing.T) {
	cov := CoverageList{10, 20, 30}
	for wantIdx, gid := range cov {
		idx, ok := cov.Index(gid)
		if !ok || idx != wantIdx {
			t.Errorf("Index(%d) = (%d, %v), want (%d, true)", gid, idx, ok, wantIdx)
		}
	}
	if _, ok := cov.Index(15); ok {
		t.Error("Index(15) reported covered for an uncovered glyph")
	}
}

func TestCoverageRangesIndex(t *testing.T) {
	cov := CoverageRanges{
		{Start: 5, End: 9, StartCoverageIndex: 0},
		{Start: 20, End: 22, StartCoverageIndex: 5},
	}
	cases := []struct {
		gid     GID
		idx     int
		covered bool
	}{
		{5, 0, true},
		{9, 4, true},
		{20, 5, true},
		{22, 7, true},
		{10, 0, false},
		{23, 0, false},
	}
	for _, c := range cases {
		idx, ok := cov.Index(c.gid)
		if ok != c.covered {
			t.Errorf("Index(%d) ok = %v, want %v", c.gid, ok, c.covered)
			continue
		}
		if ok && idx != c.idx {
			t.Errorf("Index(%d) = %d, want %d", c.gid, idx, c.idx)
		}
	}
}

func TestClassDefListAndRanges(t *testing.T) {
	list := ClassDefList{StartGlyph: 100, Classes: []uint16{1, 2, 0, 3}}
	if got := list.Class(100); got != 1 {
		t.Errorf("Class(100) = %d, want 1", got)
	}
	if got := list.Class(103); got != 3 {
		t.Errorf("Class(103) = %d, want 3", got)
	}
	if got := list.Class(99); got != 0 {
		t.Errorf("Class(99) = %d, want 0 (out of range)", got)
	}
	if got := list.Class(200); got != 0 {
		t.Errorf("Class(200) = %d, want 0 (out of range)", got)
	}

	ranges := ClassDefRanges{
		{Start: 0, End: 9, Class: 1},
		{Start: 10, End: 19, Class: 2},
	}
	if got := ranges.Class(5); got != 1 {
		t.Errorf("Class(5) = %d, want 1", got)
	}
	if got := ranges.Class(15); got != 2 {
		t.Errorf("Class(15) = %d, want 2", got)
	}
	if got := ranges.Class(25); got != 0 {
		t.Errorf("Class(25) = %d, want 0 (unlisted defaults to class 0)", got)
	}
}
