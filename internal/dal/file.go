package dal

import (
	"context"
	"fmt"
	"os"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// FileSource reads fighters.json and the merged win-rate JSON from disk
type FileSource struct {
	fightersPath string
	winRatesPath string
}

// NewFileSource creates a file-backed source
func NewFileSource(fightersPath, winRatesPath string) *FileSource {
	return &FileSource{fightersPath: fightersPath, winRatesPath: winRatesPath}
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Close() error { return nil }

// Load reads both files. A missing fighters file is an error; a missing win
// rate file yields an empty matrix so every rate resolves as unknown.
func (f *FileSource) Load(ctx context.Context) (catalog.Data, error) {
	fh, err := os.Open(f.fightersPath)
	if err != nil {
		return catalog.Data{}, fmt.Errorf("open fighters file: %w", err)
	}
	defer fh.Close()

	doc, err := catalog.DecodeFighters(fh)
	if err != nil {
		return catalog.Data{}, fmt.Errorf("%s: %w", f.fightersPath, err)
	}

	m, err := f.LoadMatrix(ctx)
	if err != nil {
		return catalog.Data{}, err
	}

	return catalog.Data{Fighters: doc.Fighters, Definitions: doc.Definitions, Matrix: m}, nil
}

// LoadMatrix reads only the win-rate file
func (f *FileSource) LoadMatrix(_ context.Context) (models.WinMatrix, error) {
	if f.winRatesPath == "" {
		return models.WinMatrix{}, nil
	}
	fh, err := os.Open(f.winRatesPath)
	if os.IsNotExist(err) {
		logger.Warn("Win rate file not found, all win rates will be unknown", "path", f.winRatesPath)
		return models.WinMatrix{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open win rate file: %w", err)
	}
	defer fh.Close()

	m, err := catalog.DecodeMatrix(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.winRatesPath, err)
	}
	return m, nil
}
