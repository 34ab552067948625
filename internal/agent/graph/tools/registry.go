package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Registry resolves tool names, and their aliases, to invokable tools.
type Registry struct {
	tools   map[string]tool.InvokableTool
	aliases map[string]string
	infos   []*schema.ToolInfo
}

// NewRegistry registers tools under the names their Info reports.
func NewRegistry(ctx context.Context, ts ...tool.InvokableTool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]tool.InvokableTool, len(ts)),
		aliases: map[string]string{},
	}
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		if info == nil || strings.TrimSpace(info.Name) == "" {
			return nil, fmt.Errorf("tool info: missing name")
		}
		if _, dup := r.tools[info.Name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", info.Name)
		}
		r.tools[info.Name] = t
		r.infos = append(r.infos, info)
	}
	return r, nil
}

// Alias makes alias resolve to the registered tool name.
func (r *Registry) Alias(alias, name string) error {
	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("alias %q: tool %q is not registered", alias, name)
	}
	if _, ok := r.tools[alias]; ok {
		return fmt.Errorf("alias %q shadows a registered tool", alias)
	}
	r.aliases[alias] = name
	return nil
}

// Lookup returns the tool registered under name or an alias of it.
func (r *Registry) Lookup(name string) (tool.InvokableTool, bool) {
	if t, ok := r.tools[name]; ok {
		return t, true
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.tools[canonical], true
	}
	return nil, false
}

// Infos returns the tool descriptions to bind to a chat model.
func (r *Registry) Infos() []*schema.ToolInfo {
	return append([]*schema.ToolInfo(nil), r.infos...)
}

// Names lists registered names and aliases, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools)+len(r.aliases))
	for n := range r.tools {
		names = append(names, n)
	}
	for a := range r.aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// NewRecommendationRegistry registers the web search tool with the names
// models commonly hallucinate for it.
func NewRecommendationRegistry(ctx context.Context, search tool.InvokableTool) (*Registry, error) {
	r, err := NewRegistry(ctx, search)
	if err != nil {
		return nil, err
	}
	for _, alias := range []string{"restaurantSearch", "search"} {
		if err := r.Alias(alias, ToolRestaurantSearch); err != nil {
			return nil, err
		}
	}
	return r, nil
}
