package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// supportedMIME lists the formats we can decode and encode.
var supportedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// sniffLen is how many bytes mimetype needs to recognize image headers.
const sniffLen = 3072

// LoadImage decodes a PNG, JPEG or GIF file. The type is sniffed from the
// content rather than trusted from the extension.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeImage(f)
}

// DecodeImage sniffs r and decodes it if it is a supported image.
func DecodeImage(r io.Reader) (image.Image, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !isSupported(mt) {
		return nil, fmt.Errorf("unsupported file type %s", mt.String())
	}

	img, _, err := image.Decode(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mt.String(), err)
	}
	return img, nil
}

func isSupported(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if supportedMIME[m.String()] {
			return true
		}
	}
	return false
}

// SaveImage encodes img by the extension of path (.png, .jpg/.jpeg, .gif).
// Nothing is created on disk when the extension is unsupported.
func SaveImage(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = png.Encode
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 95}) }
	case ".gif":
		encode = func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return out.Close()
}

// EncodeJPEG renders img as JPEG bytes for detectors that take encoded frames.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// imageExts are the extensions picked up when a directory is expanded.
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

// CollectImages expands directories (non-recursively) into the image files
// they contain. Plain file arguments are kept as given.
func CollectImages(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			found = append(found, filepath.Join(p, e.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// OutputPath names the result file for input. If out is a directory (or
// multiple inputs are written), the result goes inside it as
// <name>_emojified<ext>; otherwise out is used as is.
func OutputPath(input, out string, intoDir bool) string {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext) + "_emojified" + ext
	if out == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	if intoDir {
		return filepath.Join(out, name)
	}
	return out
}
