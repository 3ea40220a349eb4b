// Package dal loads the fighter catalog and win matrix from the configured
// backing store. Every source is read once at startup; nothing here is on
// the request path.
package dal

import (
	"context"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// CatalogSource provides the raw fighter catalog and win matrix
type CatalogSource interface {
	Load(ctx context.Context) (catalog.Data, error)
	Name() string
	Close() error
}

// MatrixSource provides a win matrix that replaces the catalog's own
type MatrixSource interface {
	LoadMatrix(ctx context.Context) (models.WinMatrix, error)
	Name() string
	Close() error
}

// Importer is a store that can be seeded with catalog data
type Importer interface {
	Import(ctx context.Context, data catalog.Data) error
}
