package dal

import (
	"os"
	"path/filepath"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
)

// AttachImages fills in missing image URLs from files named after fighter
// ids (<id>.png, <id>.jpg, <id>.webp) in imagesDir, served under urlPrefix.
// Fighters that already carry an image URL are left alone.
func AttachImages(data *catalog.Data, imagesDir, urlPrefix string) int {
	if _, err := os.Stat(imagesDir); os.IsNotExist(err) {
		return 0
	}

	attached := 0
	for i := range data.Fighters {
		f := &data.Fighters[i]
		if f.ImageURL != "" || f.ID == "" {
			continue
		}
		for _, ext := range []string{".png", ".jpg", ".webp"} {
			name := f.ID + ext
			if _, err := os.Stat(filepath.Join(imagesDir, name)); err == nil {
				f.ImageURL = urlPrefix + "/" + name
				attached++
				break
			}
		}
	}
	if attached > 0 {
		logger.Info("Attached fighter images", "count", attached, "dir", imagesDir)
	}
	return attached
}
