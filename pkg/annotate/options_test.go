package annotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/seafoam/pkg/errors"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if !o.HideFrameState || o.HideFloating || !o.ReduceEdges {
		t.Errorf("DefaultOptions() = %+v", o)
	}
	if o.MergePolicy != MergeSameKind {
		t.Errorf("MergePolicy = %q, want %q", o.MergePolicy, MergeSameKind)
	}
}

func TestOptionsSet(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(Options) bool
	}{
		{"hide_frame_state", "false", false, func(o Options) bool { return !o.HideFrameState }},
		{"hide_floating", "1", false, func(o Options) bool { return o.HideFloating }},
		{"reduce_edges", " FALSE ", false, func(o Options) bool { return !o.ReduceEdges }},
		{"merge_policy", "Same-Label", false, func(o Options) bool { return o.MergePolicy == MergeSameLabel }},
		{"max_label_length", "12", false, func(o Options) bool { return o.MaxLabelLength == 12 }},
		{"future_pass", "on", false, func(o Options) bool { return o.Extra["future_pass"] == "on" }},
		{"hide_floating", "maybe", true, nil},
		{"merge_policy", "union", true, nil},
		{"max_label_length", "-1", true, nil},
		{"bad key", "x", true, nil},
		{"", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			o := DefaultOptions()
			err := o.Set(tt.key, tt.value)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeConfiguration) {
					t.Errorf("Set() error = %v, want CONFIGURATION", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			if !tt.check(o) {
				t.Errorf("Set(%q, %q) gave %+v", tt.key, tt.value, o)
			}
		})
	}
}

func TestOptionsSetPair(t *testing.T) {
	o := DefaultOptions()
	if err := o.SetPair("hide_floating=true"); err != nil {
		t.Fatalf("SetPair() error: %v", err)
	}
	if !o.HideFloating {
		t.Error("SetPair() did not set hide_floating")
	}
	if err := o.SetPair("hide_floating"); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("SetPair(no value) error = %v, want CONFIGURATION", err)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seafoam.toml")
	content := `hide_frame_state = false
merge_policy = "any"
max_label_length = 40
colour = "blue"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadOptions(path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadOptions() error: %v", err)
	}
	want := Options{
		HideFrameState: false,
		ReduceEdges:    true,
		MergePolicy:    MergeAny,
		MaxLabelLength: 40,
		Extra:          map[string]string{"colour": "blue"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadOptions() mismatch (-want +got):\n%s", diff)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("reduce_edges = \"sometimes\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOptions(bad, DefaultOptions()); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("LoadOptions(bad value) error = %v, want CONFIGURATION", err)
	}

	if _, err := LoadOptions(filepath.Join(dir, "missing.toml"), DefaultOptions()); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("LoadOptions(missing) error = %v, want CONFIGURATION", err)
	}
}

func TestOptionsKey(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	b.MergePolicy = ""
	if a.Key() != b.Key() {
		t.Errorf("Key() differs for the default merge policy: %q vs %q", a.Key(), b.Key())
	}

	c := a.Clone()
	if err := c.Set("zeta", "1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("alpha", "2"); err != nil {
		t.Fatal(err)
	}
	want := "hide_frame_state=true;hide_floating=false;reduce_edges=true;merge_policy=same-kind;max_label_length=0;alpha=2;zeta=1"
	if got := c.Key(); got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if a.Extra != nil {
		t.Error("Clone() shares Extra with the original")
	}
}
