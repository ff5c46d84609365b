package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
)

// ComputeHash fingerprints image content with a 64-bit perceptual hash.
// The hash survives re-saving and mild recompression but shifts on real
// content changes, which is what makes it usable for reuse detection.
func ComputeHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("compute perceptual hash: %w", err)
	}

	return fmt.Sprintf("%016x", hash.GetHash()), nil
}
