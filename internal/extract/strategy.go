// Package extract pulls post metadata out of fetched pages: embedded
// application state first, OpenGraph and meta tags as the fallback.
package extract

import (
	"fan-feed-go/internal/model"
)

// Mapper turns the object found at a key path into metadata. It reports false
// when the object lacks anything usable.
type Mapper func(obj map[string]any) (model.ResolvedMetadata, bool)

// Strategy is one known markup variant of one platform. Adding a variant
// means appending a Strategy; nothing else changes.
type Strategy struct {
	Name     string
	Patterns []Pattern
	Paths    []string
	Map      Mapper
}

// Extract tries the patterns in order. The first blob that decodes is the
// only one consulted; its key paths either yield the object or the strategy
// fails.
func (s Strategy) Extract(html string) (model.ResolvedMetadata, bool) {
	if s.Map == nil {
		return model.ResolvedMetadata{}, false
	}
	for _, p := range s.Patterns {
		for _, raw := range p.candidates(html) {
			root, ok := Decode(raw)
			if !ok {
				continue
			}
			obj, _, ok := FirstObject(root, s.Paths)
			if !ok {
				return model.ResolvedMetadata{}, false
			}
			return safeMap(s.Map, obj)
		}
	}
	return model.ResolvedMetadata{}, false
}

func safeMap(m Mapper, obj map[string]any) (out model.ResolvedMetadata, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = model.ResolvedMetadata{}, false
		}
	}()
	out, ok = m(obj)
	if ok {
		out.ExtractionMethod = model.ExtractionStructuredJSON
	}
	return out, ok
}

// Run returns the first strategy result, along with the strategy name.
func Run(strategies []Strategy, html string) (model.ResolvedMetadata, string, bool) {
	for _, s := range strategies {
		if md, ok := s.Extract(html); ok {
			return md, s.Name, true
		}
	}
	return model.ResolvedMetadata{}, "", false
}
