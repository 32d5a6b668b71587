// Package assets maps every emoji category to the image drawn over a face.
package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/andresmejia3/emojify/internal/utils"
)

var ErrAssetMissing = errors.New("emoji asset missing")

// Table holds one image per category.
type Table map[emoji.Emoji]image.Image

// Lookup returns the asset for e.
func (t Table) Lookup(e emoji.Emoji) (image.Image, error) {
	img, ok := t[e]
	if !ok || img == nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetMissing, e)
	}
	return img, nil
}

// Validate checks that every category has an asset and reports all holes.
func (t Table) Validate() error {
	var errs []error
	for _, e := range emoji.All() {
		if _, err := t.Lookup(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// assetExts are tried in order for each category.
var assetExts = []string{".png", ".jpg", ".jpeg", ".gif"}

// LoadDir reads <asset name>.<ext> for every category from dir.
func LoadDir(dir string) (Table, error) {
	table := make(Table, emoji.Count)
	var errs []error

	for _, e := range emoji.All() {
		path, ok := findAsset(dir, e.AssetName())
		if !ok {
			errs = append(errs, fmt.Errorf("%w: no %s.{png,jpg,gif} for %v in %s", ErrAssetMissing, e.AssetName(), e, dir))
			continue
		}
		img, err := utils.LoadImage(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %v: %v", ErrAssetMissing, e, err))
			continue
		}
		table[e] = img
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return table, nil
}

func findAsset(dir, stem string) (string, bool) {
	for _, ext := range assetExts {
		path := filepath.Join(dir, stem+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Export writes every asset in t to dir as <asset name>.png.
func Export(dir string, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}
	for _, e := range emoji.All() {
		if err := utils.SaveImage(filepath.Join(dir, e.AssetName()+".png"), t[e]); err != nil {
			return fmt.Errorf("failed to export %v: %w", e, err)
		}
	}
	return nil
}
