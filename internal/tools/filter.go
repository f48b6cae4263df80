package tools

import (
	"slices"

	"github.com/dileep-u-k/agent-gateway/internal/api"
)

// FilterTools narrows the registry to the tools a model may see for one run.
//
// Core tools are offered unless explicitly switched off. Extended tools are
// offered only when cfg.ExtendedToolsEnabled is set; if any per-group list is
// configured only the listed names are offered, otherwise the whole extended
// pool is. Integration tools need their integration in
// cfg.EnabledIntegrations. A non-empty selected list then intersects the
// result; it can remove tools but never add one. If the intersection is
// empty the unnarrowed set is returned.
//
// The result is ordered core, extended, integration, in registry order.
func FilterTools(r *Registry, cfg api.CapabilityConfig, selected []string) []Tool {
	var out []Tool

	basic := cfg.Tools.Basic
	for _, t := range r.core {
		switch t.Name() {
		case QueryCollection:
			if !api.Enabled(basic.QueryCollection) {
				continue
			}
		case AnalyzeData:
			if !api.Enabled(basic.AnalyzeData) {
				continue
			}
		case GetCollectionSchema:
			if !api.Enabled(basic.GetCollectionSchema) {
				continue
			}
		}
		out = append(out, t)
	}

	if cfg.ExtendedToolsEnabled {
		ext := cfg.Tools.Extended
		for _, t := range r.extended {
			if !ext.Configured() || slices.Contains(groupList(ext, t.Group), t.Function.Name) {
				out = append(out, t)
			}
		}
	}

	for _, t := range r.integrations {
		if slices.Contains(cfg.EnabledIntegrations, t.Integration) {
			out = append(out, t)
		}
	}

	if len(selected) == 0 {
		return out
	}
	narrowed := make([]Tool, 0, len(out))
	for _, t := range out {
		if slices.Contains(selected, t.Function.Name) {
			narrowed = append(narrowed, t)
		}
	}
	if len(narrowed) == 0 {
		return out
	}
	return narrowed
}

func groupList(e api.ExtendedTools, g Group) []string {
	switch g {
	case GroupFinance:
		return e.Finance
	case GroupSales:
		return e.Sales
	case GroupHR:
		return e.HR
	case GroupCrossCollection:
		return e.CrossCollection
	case GroupAdvanced:
		return e.Advanced
	}
	return nil
}
