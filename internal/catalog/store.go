// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the in-memory catalog of data-endpoint descriptors
// and loads it from YAML, JSON or SQLite artifacts.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Store is an immutable, in-memory collection of catalog entries with
// optional enhancement overlays. It is safe for concurrent reads.
type Store struct {
	entries      []types.CatalogEntry
	byID         map[string]int
	byDomain     map[string][]int
	enhancements map[string]types.EnhancedCatalogEntry
}

// NewStore validates entries and overlays and builds the lookup tables.
// Invalid entries are not fatal: they are left out and reported in the
// returned skipped list, along with overlays that reference unknown ids.
func NewStore(entries []types.CatalogEntry, enhanced []types.EnhancedCatalogEntry) (*Store, []types.SkippedEntry) {
	s := &Store{
		byID:         make(map[string]int, len(entries)),
		byDomain:     make(map[string][]int),
		enhancements: make(map[string]types.EnhancedCatalogEntry, len(enhanced)),
	}

	var skipped []types.SkippedEntry
	for _, e := range entries {
		if err := validate(e); err != nil {
			skipped = append(skipped, types.SkippedEntry{ID: e.ID, Reason: err.Error()})
			continue
		}
		if _, dup := s.byID[e.ID]; dup {
			skipped = append(skipped, types.SkippedEntry{ID: e.ID, Reason: "duplicate id"})
			continue
		}
		idx := len(s.entries)
		s.entries = append(s.entries, e)
		s.byID[e.ID] = idx
		s.byDomain[e.Domain] = append(s.byDomain[e.Domain], idx)
	}

	for _, enh := range enhanced {
		if _, ok := s.byID[enh.ID]; !ok {
			skipped = append(skipped, types.SkippedEntry{ID: enh.ID, Reason: "enhancement for unknown entry"})
			continue
		}
		s.enhancements[enh.ID] = enh
	}

	return s, skipped
}

// validate checks the fields every usable entry must carry.
func validate(e types.CatalogEntry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if strings.TrimSpace(e.Domain) == "" {
		return fmt.Errorf("missing domain")
	}
	seen := make(map[string]bool, len(e.ResponseSchema))
	for _, c := range e.ResponseSchema {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("response schema has an unnamed column")
		}
		if seen[c.Name] {
			return fmt.Errorf("response schema repeats column %q", c.Name)
		}
		seen[c.Name] = true
		if c.Type != "" && !c.Type.Valid() {
			return fmt.Errorf("column %q has unknown semantic type %q", c.Name, c.Type)
		}
	}
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// All returns every entry in load order. The slice must not be modified.
func (s *Store) All() []types.CatalogEntry { return s.entries }

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*types.CatalogEntry, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.entries[idx], true
}

// ByDomain returns the entries tagged with domain, in load order.
func (s *Store) ByDomain(domain string) []types.CatalogEntry {
	idxs := s.byDomain[domain]
	out := make([]types.CatalogEntry, len(idxs))
	for i, idx := range idxs {
		out[i] = s.entries[idx]
	}
	return out
}

// Domains returns the sorted set of domain tags.
func (s *Store) Domains() []string {
	out := make([]string, 0, len(s.byDomain))
	for d := range s.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Enhancement returns the overlay for id, if one was supplied.
func (s *Store) Enhancement(id string) (types.EnhancedCatalogEntry, bool) {
	enh, ok := s.enhancements[id]
	return enh, ok
}

// Enhancements returns all overlays sorted by id.
func (s *Store) Enhancements() []types.EnhancedCatalogEntry {
	out := make([]types.EnhancedCatalogEntry, 0, len(s.enhancements))
	for _, e := range s.enhancements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
