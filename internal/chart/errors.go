// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import "fmt"

// UnknownEntryError reports a chart request for an id not in the catalog.
type UnknownEntryError struct {
	ID string
}

func (e *UnknownEntryError) Error() string {
	return fmt.Sprintf("unknown catalog entry: %s", e.ID)
}
