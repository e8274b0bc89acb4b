package roads

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestComponents(t *testing.T) {
	tests := []struct {
		name    string
		segs    []Segment
		want    int
		largest int
	}{
		{"empty", nil, 0, 0},
		{"single", []Segment{NewSegment(orb.Point{0, 0}, orb.Point{1, 0}, Road)}, 1, 2},
		{
			"two systems",
			[]Segment{
				NewSegment(orb.Point{0, 0}, orb.Point{1, 0}, Road),
				NewSegment(orb.Point{1, 0}, orb.Point{2, 1}, Road),
				NewSegment(orb.Point{8, 8}, orb.Point{9, 9}, Highway),
			},
			2, 3,
		},
		{
			"joined by crossing",
			[]Segment{
				NewSegment(orb.Point{0, 0}, orb.Point{10, 10}, Road),
				NewSegment(orb.Point{0, 10}, orb.Point{10, 0}, Road),
			},
			1, 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := mustAdd(t, New(), tt.segs...)
			if got := len(n.Components()); got != tt.want {
				t.Errorf("Components = %d, want %d", got, tt.want)
			}
			if got := len(n.LargestComponent()); got != tt.largest {
				t.Errorf("LargestComponent = %d vertices, want %d", got, tt.largest)
			}
		})
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(3, 4)
	uf.union(1, 4)

	if uf.find(0) != uf.find(3) {
		t.Error("0 and 3 should share a root")
	}
	if uf.find(2) == uf.find(0) {
		t.Error("2 should be alone")
	}
}
