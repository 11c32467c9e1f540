package annotate

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/seafoam/pkg/errors"
)

// Recognized option keys.
const (
	KeyHideFrameState = "hide_frame_state"
	KeyHideFloating   = "hide_floating"
	KeyReduceEdges    = "reduce_edges"
	KeyMergePolicy    = "merge_policy"
	KeyMaxLabelLength = "max_label_length"
)

// MergePolicy decides which parallel edges edge reduction may combine.
type MergePolicy string

const (
	// MergeSameKind combines parallel edges of the same category.
	MergeSameKind MergePolicy = "same-kind"
	// MergeSameLabel combines parallel edges with identical labels.
	MergeSameLabel MergePolicy = "same-label"
	// MergeAny combines every parallel edge between a node pair.
	MergeAny MergePolicy = "any"
	// MergeNone never combines edges.
	MergeNone MergePolicy = "none"
)

// ValidMergePolicies is the set of recognized merge policies.
var ValidMergePolicies = map[MergePolicy]bool{
	MergeSameKind:  true,
	MergeSameLabel: true,
	MergeAny:       true,
	MergeNone:      true,
}

// Options configures the annotator pipeline.
type Options struct {
	HideFrameState bool        `json:"hide_frame_state"`
	HideFloating   bool        `json:"hide_floating"`
	ReduceEdges    bool        `json:"reduce_edges"`
	MergePolicy    MergePolicy `json:"merge_policy"`
	MaxLabelLength int         `json:"max_label_length,omitempty"`

	// Extra holds keys no pass recognizes. They are kept so configuration
	// written for newer versions still loads.
	Extra map[string]string `json:"extra,omitempty"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HideFrameState: true,
		ReduceEdges:    true,
		MergePolicy:    MergeSameKind,
	}
}

// Set assigns one option from its textual value. Malformed values of
// recognized keys fail with CONFIGURATION; unknown keys are stored in
// Extra.
func (o *Options) Set(key, value string) error {
	if err := errors.ValidateOptionKey(key); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	switch key {
	case KeyHideFrameState:
		return setBool(&o.HideFrameState, key, value)
	case KeyHideFloating:
		return setBool(&o.HideFloating, key, value)
	case KeyReduceEdges:
		return setBool(&o.ReduceEdges, key, value)
	case KeyMergePolicy:
		p := MergePolicy(strings.ToLower(value))
		if !ValidMergePolicies[p] {
			return errors.New(errors.ErrCodeConfiguration,
				"invalid %s %q (must be one of: same-kind, same-label, any, none)", key, value)
		}
		o.MergePolicy = p
	case KeyMaxLabelLength:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.New(errors.ErrCodeConfiguration, "invalid %s %q (must be a non-negative integer)", key, value)
		}
		o.MaxLabelLength = n
	default:
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[key] = value
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return errors.New(errors.ErrCodeConfiguration, "invalid %s %q (must be true or false)", key, value)
	}
	*dst = b
	return nil
}

// SetPair parses "key=value" and applies it with [Options.Set].
func (o *Options) SetPair(pair string) error {
	key, value, ok := strings.Cut(pair, "=")
	if !ok {
		return errors.New(errors.ErrCodeConfiguration, "option %q is not key=value", pair)
	}
	return o.Set(strings.TrimSpace(key), value)
}

// LoadOptions reads a TOML file of top-level key/value pairs on top of
// base.
//
//	hide_frame_state = false
//	merge_policy = "same-label"
//	max_label_length = 40
func LoadOptions(path string, base Options) (Options, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return base, errors.Wrap(errors.ErrCodeConfiguration, err, "load options %s", path)
	}
	opts := base.Clone()
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		var value string
		switch v := raw[key].(type) {
		case string:
			value = v
		case bool, int64, float64:
			value = fmt.Sprint(v)
		default:
			return base, errors.New(errors.ErrCodeConfiguration, "%s: option %s has unsupported type %T", path, key, v)
		}
		if err := opts.Set(key, value); err != nil {
			return base, err
		}
	}
	return opts, nil
}

// Clone returns a copy of o that shares no maps with it.
func (o Options) Clone() Options {
	o.Extra = maps.Clone(o.Extra)
	return o
}

// Key returns a canonical rendering of o suitable for cache keys.
func (o Options) Key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s=%t;%s=%t;%s=%t;%s=%s;%s=%d",
		KeyHideFrameState, o.HideFrameState,
		KeyHideFloating, o.HideFloating,
		KeyReduceEdges, o.ReduceEdges,
		KeyMergePolicy, o.policy(),
		KeyMaxLabelLength, o.MaxLabelLength)
	for _, k := range slices.Sorted(maps.Keys(o.Extra)) {
		fmt.Fprintf(&sb, ";%s=%s", k, o.Extra[k])
	}
	return sb.String()
}

func (o Options) policy() MergePolicy {
	if o.MergePolicy == "" {
		return MergeSameKind
	}
	return o.MergePolicy
}
