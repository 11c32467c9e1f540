package bgv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSupportedVersions(t *testing.T) {
	want := []Version{{6, 0}, {6, 1}, {7, 0}, {7, 1}, {8, 0}}
	if diff := cmp.Diff(want, SupportedVersions()); diff != "" {
		t.Errorf("SupportedVersions() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		name string
		v    Version
		want layout
	}{
		{"exact old", Version{6, 0}, layouts[Version{6, 0}]},
		{"exact new", Version{8, 0}, layouts[Version{8, 0}]},
		{"between", Version{7, 5}, layouts[Version{7, 1}]},
		{"newer than all", Version{9, 2}, layouts[Version{8, 0}]},
		{"older than all", Version{1, 0}, layouts[Version{6, 0}]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layoutFor(tt.v); got != tt.want {
				t.Errorf("layoutFor(%s) = %+v, want %+v", tt.v, got, tt.want)
			}
		})
	}
}

func TestLayoutFlagsMonotonic(t *testing.T) {
	var prev layout
	for _, v := range SupportedVersions() {
		l := layouts[v]
		for _, pair := range [][2]bool{
			{prev.varints, l.varints},
			{prev.predecessor, l.predecessor},
			{prev.groupProps, l.groupProps},
			{prev.sourcePositions, l.sourcePositions},
			{prev.edgeIndex, l.edgeIndex},
		} {
			if pair[0] && !pair[1] {
				t.Errorf("version %s drops a layout feature of its predecessor", v)
			}
		}
		prev = l
	}
}
