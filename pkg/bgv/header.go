package bgv

import (
	"strings"

	"github.com/matzehuels/seafoam/pkg/props"
)

// Group is one enclosing BEGIN_GROUP record, typically a compilation of a
// method.
type Group struct {
	Name      string
	ShortName string
	Method    props.Value
	BCI       int
	Props     *props.Map
}

// Header is the decoded snapshot header. Groups lists the enclosing groups,
// outermost first.
type Header struct {
	Groups []Group
	Format string
	Args   []props.Value
	Props  *props.Map
}

// Phase returns the phase name: Format with each %s or %d replaced by the
// next argument. %% renders a single percent sign.
func (h *Header) Phase() string {
	var sb strings.Builder
	next := 0
	for i := 0; i < len(h.Format); i++ {
		c := h.Format[i]
		if c != '%' || i+1 == len(h.Format) {
			sb.WriteByte(c)
			continue
		}
		switch verb := h.Format[i+1]; verb {
		case '%':
			sb.WriteByte('%')
			i++
		case 's', 'd':
			if next < len(h.Args) {
				sb.WriteString(h.Args[next].String())
				next++
			} else {
				sb.WriteByte('%')
				sb.WriteByte(verb)
			}
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// DisplayName composes the name shown for a snapshot: each enclosing
// group's short name, prefixed with its compilation id when the group
// carries one, followed by the phase, joined with "/".
func DisplayName(h *Header) string {
	parts := make([]string, 0, len(h.Groups)+1)
	for _, g := range h.Groups {
		name := g.ShortName
		if name == "" {
			name = g.Name
		}
		if cid, ok := g.Props.Get("compilationId"); ok && !cid.IsNull() {
			prefix := cid.String() + ":"
			if !strings.HasPrefix(name, prefix) {
				name = prefix + name
			}
		}
		parts = append(parts, name)
	}
	parts = append(parts, h.Phase())
	return strings.Join(parts, "/")
}

// ToMap returns the header as an ordered map for printing and searching:
// groups (outermost first), format, args, props.
func (h *Header) ToMap() *props.Map {
	groups := make([]props.Value, 0, len(h.Groups))
	for _, g := range h.Groups {
		m := props.NewMap()
		m.Set("name", props.String(g.Name))
		m.Set("short_name", props.String(g.ShortName))
		m.Set("method", g.Method)
		m.Set("bci", props.Int(int64(g.BCI)))
		m.Set("props", props.MapOf(g.Props))
		groups = append(groups, props.MapOf(m))
	}
	out := props.NewMap()
	out.Set("groups", props.List(groups...))
	out.Set("format", props.String(h.Format))
	out.Set("args", props.List(h.Args...))
	out.Set("props", props.MapOf(h.Props))
	return out
}
