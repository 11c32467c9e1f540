// Package annotate derives display attributes for decoded compiler graphs.
//
// [Apply] runs a fixed pipeline over a [graph.Graph]: it resets every node
// and edge attribute, runs each applicable [Annotator] to assign labels and
// categories, then reduces parallel edges and hides clutter according to
// [Options]. Decoded properties are never modified.
//
//	opts := annotate.DefaultOptions()
//	opts.HideFloating = true
//	annotate.Apply(g, opts)
//
// # Options
//
// Options come from key/value pairs (the CLI's --option flag) or a TOML
// file via [LoadOptions]. The recognized keys are hide_frame_state,
// hide_floating, reduce_edges, merge_policy and max_label_length. Other
// keys are kept in [Options.Extra] and ignored.
//
// # Hiding
//
// Hiding only ever sets the Hidden flag; nothing is removed, so every pass
// sees the full graph. Labels are computed before anything is hidden.
package annotate
