// ABOUTME: Implements Filtered - a view of a Source that applies allow/deny
// ABOUTME: lists to control which tools the model can see and invoke.
package tool

import "slices"

// Filtered wraps a Source with allow/deny filtering.
type Filtered struct {
	source  Source
	allowed []string
	denied  []string
}

// NewFiltered creates a filtered view of source.
// allowed: if non-empty, only these tools are visible (allowlist)
// denied: these tools are never visible (denylist, takes precedence)
func NewFiltered(source Source, allowed, denied []string) *Filtered {
	if source == nil {
		panic("mcphub: source must not be nil")
	}
	return &Filtered{source: source, allowed: allowed, denied: denied}
}

// Visible reports whether name passes the filter.
func (f *Filtered) Visible(name string) bool {
	if slices.Contains(f.denied, name) {
		return false
	}
	return len(f.allowed) == 0 || slices.Contains(f.allowed, name)
}

// Get returns the tool if it exists in the source and passes the filter.
func (f *Filtered) Get(name string) (Tool, bool) {
	if !f.Visible(name) {
		return nil, false
	}
	return f.source.Get(name)
}

// All returns the visible tools in source order.
func (f *Filtered) All() []Tool {
	var visible []Tool
	for _, t := range f.source.All() {
		if f.Visible(t.Name()) {
			visible = append(visible, t)
		}
	}
	return visible
}
