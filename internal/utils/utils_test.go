package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateImageID(t *testing.T) {
	// Integration test using the OS filesystem
	tmp, err := os.CreateTemp("", "image_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmp.Name())

	// Write dummy content
	if _, err := tmp.Write([]byte("fake image content")); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	id, err := GenerateImageID(tmp.Name())
	if err != nil || id == "" {
		t.Errorf("Failed to generate ID: %v", err)
	}

	// Verify Determinism
	id2, _ := GenerateImageID(tmp.Name())
	if id != id2 {
		t.Errorf("Hash is not deterministic. Got %s, then %s", id, id2)
	}

	// Verify Sensitivity (Change content -> Change ID)
	f, _ := os.OpenFile(tmp.Name(), os.O_APPEND|os.O_WRONLY, 0644)
	f.Write([]byte(" modification"))
	f.Close()

	id3, _ := GenerateImageID(tmp.Name())
	if id == id3 {
		t.Error("Hash did not change after file modification")
	}
}

func TestSafeCommandCapturesStderr(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	cmd := NewSafeCommand(context.Background(), "/bin/sh", "-c", "echo boom >&2; exit 3")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected non-zero exit")
	}
	if got := cmd.Stderr.String(); got != "boom\n" {
		t.Errorf("captured stderr = %q, want %q", got, "boom\n")
	}
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 30), uint8(y * 40), 90, 255})
		}
	}
	return img
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	src := testImage()

	tests := []struct {
		name     string
		file     string
		lossless bool
	}{
		{"png", "out.png", true},
		{"jpeg", "nested/out.jpg", false},
		{"gif", "out.gif", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := SaveImage(path, src); err != nil {
				t.Fatalf("SaveImage failed: %v", err)
			}
			got, err := LoadImage(path)
			if err != nil {
				t.Fatalf("LoadImage failed: %v", err)
			}
			if got.Bounds() != src.Bounds() {
				t.Errorf("bounds = %v, want %v", got.Bounds(), src.Bounds())
			}
			if tt.lossless {
				r, g, b, a := got.At(3, 2).RGBA()
				wr, wg, wb, wa := src.At(3, 2).RGBA()
				if r != wr || g != wg || b != wb || a != wa {
					t.Errorf("pixel (3,2) changed after PNG round trip")
				}
			}
		})
	}
}

func TestSaveImageRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.bmp", "out.webp", filepath.Join("nested", "out.tiff"), "noext"} {
		path := filepath.Join(dir, name)
		if err := SaveImage(path, testImage()); err == nil {
			t.Errorf("expected error for %s output", name)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s: rejected save left a file behind (stat err = %v)", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); !os.IsNotExist(err) {
		t.Errorf("rejected save created its output directory (stat err = %v)", err)
	}
}

func TestDecodeImageRejectsNonImage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("%PDF-1.4 not an image")))
	if err == nil {
		t.Fatal("expected error for PDF content")
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(testImage())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("missing JPEG SOI marker, got % X", data[:2])
	}
	img, err := DecodeImage(bytes.NewReader(data))
	if err != nil || img.Bounds().Dx() != 8 {
		t.Errorf("DecodeImage(EncodeJPEG()) = %v, %v", img, err)
	}
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(dir, "notes.txt")

	got, err := CollectImages([]string{dir, single})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png"), single}
	if len(got) != len(want) {
		t.Fatalf("CollectImages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CollectImages()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := CollectImages([]string{filepath.Join(dir, "missing.png")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input: got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, out string
		intoDir    bool
		want       string
	}{
		{"/photos/me.jpg", "", false, "/photos/me_emojified.jpg"},
		{"/photos/me.jpg", "/tmp/result.png", false, "/tmp/result.png"},
		{"/photos/me.jpg", "/tmp/out", true, "/tmp/out/me_emojified.jpg"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.out, tt.intoDir); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %v) = %q, want %q", tt.input, tt.out, tt.intoDir, got, tt.want)
		}
	}
}

func TestWriteErrorIncludesCrashLogTail(t *testing.T) {
	s := &SafeCommand{Stderr: new(bytes.Buffer)}
	for i := 0; i < crashLogLines+5; i++ {
		fmt.Fprintf(s.Stderr, "line %d\n", i)
	}

	var out bytes.Buffer
	writeError(&out, "Detector crashed", errors.New("EOF"), s)
	got := out.String()

	for _, want := range []string{"EMOJIFY ERROR: Detector crashed", "DETAILS: EOF", "DETECTOR CRASH LOGS", "(5 lines omitted)", fmt.Sprintf("line %d", crashLogLines+4)} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "line 4\n") {
		t.Error("report should only include the tail of the crash log")
	}
}

func TestWriteErrorWithoutCommand(t *testing.T) {
	var out bytes.Buffer
	writeError(&out, "Invalid arguments", nil, nil)
	if strings.Contains(out.String(), "CRASH LOGS") || strings.Contains(out.String(), "DETAILS") {
		t.Errorf("unexpected sections in report:\n%s", out.String())
	}
}
