package packages

import "context"

// Package is a catalog item whose USD price is derived from its JPY base.
// BaseYen is fixed once the package is tracked.
type Package struct {
	RemoteID int64
	BaseYen  int64
}

// Packages is the package catalog.
type Packages interface {
	// InsertNew tracks every package not already in the catalog and reports
	// how many were added. Tracked packages keep their stored base.
	InsertNew(ctx context.Context, ps []Package) (int, error)
	List(ctx context.Context) ([]Package, error)
}
