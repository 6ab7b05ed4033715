package core

import "context"

// RefKind names a reference data list.
type RefKind string

const (
	RefCurrency      RefKind = "currency"
	RefUnit          RefKind = "unit"
	RefPort          RefKind = "port"
	RefContainerType RefKind = "container_type"
	RefPackageType   RefKind = "package_type"
	RefIncoterm      RefKind = "incoterm"
)

// IsValid reports whether k is a known reference list.
func (k RefKind) IsValid() bool {
	switch k {
	case RefCurrency, RefUnit, RefPort, RefContainerType, RefPackageType, RefIncoterm:
		return true
	}
	return false
}

// RefItem is one lookup entry.
type RefItem struct {
	Kind RefKind `json:"kind"`
	Code string  `json:"code"`
	Name string  `json:"name"`
}

// ReferenceData is the read-only lookup provider consumed by costing, cargo and shipments.
// Lookups are served from memory; Refresh reloads them from storage.
type ReferenceData interface {
	// Lookup returns the entry for (kind, code) or a reference error.
	Lookup(kind RefKind, code string) (RefItem, error)

	// List returns all entries of kind ordered by code.
	List(kind RefKind) []RefItem

	// Refresh reloads every list from storage, replacing the cached snapshot atomically.
	Refresh(ctx context.Context) error
}
