// ABOUTME: Builds the capability catalog - one namespace merged from every
// ABOUTME: connected provider, where the earliest provider wins a duplicate name.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389-research/mcphub/llm"
	"github.com/2389-research/mcphub/mcp"
	"github.com/2389-research/mcphub/provider"
	"github.com/2389-research/mcphub/tool"
)

// Entry binds one capability name to the session that owns it.
type Entry struct {
	Session    *provider.Session
	Capability mcp.ToolInfo
	tool       *mcp.ToolAdapter
}

// Note records a capability name exposed by more than one provider. It is
// informational: the earlier provider keeps the name.
type Note struct {
	Name    string
	Owner   string
	Skipped string
}

func (n Note) String() string {
	return fmt.Sprintf("capability %q from %s shadowed by %s", n.Name, n.Skipped, n.Owner)
}

// Catalog is an immutable name to owner mapping. It implements tool.Source.
type Catalog struct {
	entries map[string]*Entry
	order   []string
	notes   []Note
}

// Build discovers every session's capabilities, in the order given, and
// binds each unclaimed name to the session exposing it. A discovery failure
// aborts the build.
func Build(ctx context.Context, sessions []*provider.Session, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{entries: make(map[string]*Entry)}
	for _, session := range sessions {
		infos, err := session.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("build catalog: %w", err)
		}

		for _, info := range infos {
			if existing, claimed := c.entries[info.Name]; claimed {
				note := Note{Name: info.Name, Owner: existing.Session.Name(), Skipped: session.Name()}
				c.notes = append(c.notes, note)
				logger.Warn("duplicate capability skipped",
					"tool", info.Name, "provider", session.Name(), "owner", note.Owner)
				continue
			}
			c.entries[info.Name] = &Entry{
				Session:    session,
				Capability: info,
				tool:       mcp.NewToolAdapter(info, session, session.Name()),
			}
			c.order = append(c.order, info.Name)
		}
		logger.Debug("provider discovered", "provider", session.Name(), "tools", len(infos))
	}
	return c, nil
}

// Lookup returns the entry bound to name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Get returns the tool bound to name.
func (c *Catalog) Get(name string) (tool.Tool, bool) {
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// All returns every bound tool in catalog order.
func (c *Catalog) All() []tool.Tool {
	tools := make([]tool.Tool, 0, len(c.order))
	for _, name := range c.order {
		tools = append(tools, c.entries[name].tool)
	}
	return tools
}

// Names returns the bound names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of bound names.
func (c *Catalog) Len() int { return len(c.order) }

// Notes returns the ambiguities recorded during Build.
func (c *Catalog) Notes() []Note {
	return append([]Note(nil), c.notes...)
}

// Descriptors returns the tool definitions offered to the model, in catalog
// order: providers in connection order, each in its discovery order.
func (c *Catalog) Descriptors() []llm.ToolDefinition {
	return Descriptors(c.All())
}

// Descriptors converts tools into model tool definitions.
func Descriptors(tools []tool.Tool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: schema,
		})
	}
	return defs
}

// Compile-time interface assertion.
var _ tool.Source = (*Catalog)(nil)
