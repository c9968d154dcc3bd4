// Package avatar fingerprints profile pictures and recognises the
// placeholder images handed out to accounts that never uploaded one.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// DefaultThreshold is the largest Hamming distance still counted as the same picture.
const DefaultThreshold = 2

// DefaultHashes are average hashes of the known placeholder avatars
// (the coloured-initial circles and the grey silhouette).
var DefaultHashes = []string{
	"0000000000000000",
	"ffffffffffffffff",
	"3c7effffffff7e3c",
	"c381000000000081",
	"e7c3c3e7c3810000",
}

// Hash decodes an image and returns its average hash.
func Hash(data []byte) (*goimagehash.ImageHash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return goimagehash.AverageHash(img)
}

// ParseHash reads a 64-bit average hash written as 16 hex digits.
func ParseHash(hexHash string) (*goimagehash.ImageHash, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(hexHash), "a:"), 16, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", hexHash, err)
	}
	return goimagehash.NewImageHash(v, goimagehash.AHash), nil
}

// Format is the inverse of ParseHash.
func Format(h *goimagehash.ImageHash) string {
	return fmt.Sprintf("%016x", h.GetHash())
}

// Similar reports whether two hashes are within threshold of each other.
func Similar(a, b *goimagehash.ImageHash, threshold int) bool {
	if a == nil || b == nil {
		return false
	}
	d, err := a.Distance(b)
	if err != nil {
		return false
	}
	return d <= threshold
}

// Classifier checks hashes against the known placeholder set.
type Classifier struct {
	refs      []*goimagehash.ImageHash
	threshold int
}

func NewClassifier(hexHashes []string, threshold int) (*Classifier, error) {
	if len(hexHashes) == 0 {
		hexHashes = DefaultHashes
	}
	if threshold < 0 {
		threshold = DefaultThreshold
	}

	c := &Classifier{threshold: threshold}
	for _, h := range hexHashes {
		ref, err := ParseHash(h)
		if err != nil {
			return nil, err
		}
		c.refs = append(c.refs, ref)
	}
	return c, nil
}

// IsDefault reports whether h matches one of the placeholder hashes.
func (c *Classifier) IsDefault(h *goimagehash.ImageHash) bool {
	for _, ref := range c.refs {
		if Similar(h, ref, c.threshold) {
			return true
		}
	}
	return false
}
