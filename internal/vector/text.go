// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// CanonicalText returns the text embedded for an entry: title, domain,
// keywords and column names, lower-cased and joined by single spaces.
func CanonicalText(e types.CatalogEntry) string {
	parts := make([]string, 0, 2+len(e.Keywords)+len(e.ResponseSchema))
	parts = append(parts, e.Title, e.Domain)
	parts = append(parts, e.Keywords...)
	parts = append(parts, e.ResponseSchema.Names()...)
	return strings.ToLower(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}
