package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/stretchr/testify/require"
)

func TestBuiltinIsTotalAndDistinct(t *testing.T) {
	req := require.New(t)
	table := Builtin(64)
	req.NoError(table.Validate())
	req.Len(table, int(emoji.Count))

	all := emoji.All()
	for i, a := range all {
		imgA := table[a].(*image.RGBA)
		req.Equal(image.Rect(0, 0, 64, 64), imgA.Bounds())
		for _, b := range all[i+1:] {
			imgB := table[b].(*image.RGBA)
			req.False(bytes.Equal(imgA.Pix, imgB.Pix), "%v and %v render identically", a, b)
		}
	}
}

func TestRenderHasTransparentCorners(t *testing.T) {
	img := Render(emoji.Smiling, 32)
	if a := img.RGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	if a := img.RGBAAt(16, 16).A; a != 255 {
		t.Errorf("center alpha = %d, want 255", a)
	}
}

func TestRenderAntialiasesEdges(t *testing.T) {
	img := Render(emoji.Smiling, 64)
	// The face outline starts a fraction of a pixel into x=1 on the middle row.
	if a := img.RGBAAt(1, 32).A; a == 0 || a == 255 {
		t.Errorf("edge alpha = %d, want partial coverage", a)
	}
	if a := img.RGBAAt(0, 32).A; a != 0 {
		t.Errorf("outside alpha = %d, want 0", a)
	}
}

func TestRenderDrawsEyesFromExpression(t *testing.T) {
	// Below the closed-eye bar but inside an open-eye dot, on the viewer's
	// right (the subject's left eye).
	const x, y = 41, 28
	open := Render(emoji.Smiling, 64).RGBAAt(x, y)
	winking := Render(emoji.LeftWink, 64).RGBAAt(x, y)

	if !near(open, feature) {
		t.Errorf("open eye pixel = %v, want %v", open, feature)
	}
	if !near(winking, faceFill) {
		t.Errorf("closed eye pixel = %v, want %v", winking, faceFill)
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return x-y <= 2 || y-x <= 2 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestRenderClampsSize(t *testing.T) {
	if got := Render(emoji.Frowning, 1).Bounds().Dx(); got != minSize {
		t.Errorf("size = %d, want %d", got, minSize)
	}
}

func TestLookupAndValidateReportHoles(t *testing.T) {
	table := Builtin(16)
	delete(table, emoji.LeftWink)
	table[emoji.RightWink] = nil

	_, err := table.Lookup(emoji.LeftWink)
	if !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Lookup(LEFT_WINK) error = %v, want ErrAssetMissing", err)
	}

	err = table.Validate()
	if !errors.Is(err, ErrAssetMissing) {
		t.Fatalf("Validate() error = %v, want ErrAssetMissing", err)
	}
	for _, name := range []string{"LEFT_WINK", "RIGHT_WINK"} {
		if !bytes.Contains([]byte(err.Error()), []byte(name)) {
			t.Errorf("Validate() error %q does not mention %s", err, name)
		}
	}
}

func TestExportThenLoadDir(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	req.NoError(Export(dir, Builtin(24)))
	for _, e := range emoji.All() {
		req.FileExists(filepath.Join(dir, e.AssetName()+".png"))
	}

	loaded, err := LoadDir(dir)
	req.NoError(err)
	req.NoError(loaded.Validate())
	req.Equal(image.Rect(0, 0, 24, 24), loaded[emoji.Smiling].Bounds())
}

func TestLoadDirMissingFile(t *testing.T) {
	dir := t.TempDir()
	if err := Export(dir, Builtin(16)); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "closed_frown.png")); err != nil {
		t.Fatal(err)
	}

	_, err := LoadDir(dir)
	if !errors.Is(err, ErrAssetMissing) {
		t.Errorf("LoadDir() error = %v, want ErrAssetMissing", err)
	}
}

func TestLoadDirRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	if err := Export(dir, Builtin(16)); err != nil {
		t.Fatal(err)
	}
	// Right name, wrong content.
	if err := os.WriteFile(filepath.Join(dir, "smile.png"), []byte("definitely not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadDir(dir)
	if !errors.Is(err, ErrAssetMissing) {
		t.Errorf("LoadDir() error = %v, want ErrAssetMissing", err)
	}
}
