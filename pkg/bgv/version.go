package bgv

import (
	"fmt"
	"slices"
)

// Version is a format major.minor pair.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Compare orders versions by major then minor.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return v.Major - o.Major
	}
	return v.Minor - o.Minor
}

// layout lists the version-dependent record shapes. Every decode site that
// depends on the version consults one of these flags.
type layout struct {
	varints         bool // LEB128 ids, counts, lengths and ints; else fixed width
	predecessor     bool // node records carry a has-predecessor byte
	groupProps      bool // begin-group records carry a property map
	sourcePositions bool // NODE_SOURCE_POSITION pool entries are legal
	edgeIndex       bool // edge records carry an explicit index
}

var layouts = map[Version]layout{
	{6, 0}: {},
	{6, 1}: {predecessor: true},
	{7, 0}: {varints: true, predecessor: true, groupProps: true},
	{7, 1}: {varints: true, predecessor: true, groupProps: true, sourcePositions: true},
	{8, 0}: {varints: true, predecessor: true, groupProps: true, sourcePositions: true, edgeIndex: true},
}

// SupportedVersions returns the versions this package decodes, ascending.
func SupportedVersions() []Version {
	vs := make([]Version, 0, len(layouts))
	for v := range layouts {
		vs = append(vs, v)
	}
	slices.SortFunc(vs, Version.Compare)
	return vs
}

// IsSupported reports whether v is one of [SupportedVersions].
func IsSupported(v Version) bool {
	_, ok := layouts[v]
	return ok
}

// layoutFor returns the layout for v. An unsupported version borrows the
// layout of the greatest supported version below it, or the lowest one.
func layoutFor(v Version) layout {
	if l, ok := layouts[v]; ok {
		return l
	}
	vs := SupportedVersions()
	best := vs[0]
	for _, s := range vs {
		if s.Compare(v) <= 0 {
			best = s
		}
	}
	return layouts[best]
}
