// Package util - Loading encoded frames from disk for the pose commands.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-pose/images"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Format is the encoding guessed from the extension.
	Format images.ImageFormat
	// Frame is the frame number of the image file.
	Frame int
}

// LoadImageFile reads a single encoded image.
//
// Arguments:
//   - path: The image path. The extension selects the format.
//
// Returns:
//   - ImageFile: The file with Frame set to 0.
//   - error: An error if the extension is unsupported or the file can't be read.
func LoadImageFile(path string) (ImageFile, error) {
	format, err := images.FormatFromPath(path)
	if err != nil {
		return ImageFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ImageFile{}, err
	}
	return ImageFile{Path: path, Data: data, Format: format}, nil
}

// LoadDirectoryImageFiles reads all supported image files from a directory.
//
// Files named "frame-<n>.<ext>" are numbered n; other files are numbered by their position in
// name order. The result is sorted by frame number.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if _, err := images.FormatFromPath(file.Name()); err != nil {
			continue
		}

		img, err := LoadImageFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, err
		}
		img.Frame = len(out)
		name := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if n, err := strconv.Atoi(strings.TrimPrefix(name, "frame-")); err == nil && strings.HasPrefix(name, "frame-") {
			img.Frame = n
		}
		out = append(out, img)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frame < out[j].Frame
	})

	return out, nil
}
