// Package vision prepares image files for multimodal classification requests.
package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 1024
	jpegQuality     = 85
)

type Image struct {
	MimeType string
	Data     []byte
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MimeType, i.Base64())
}

// Load reads an image and re-encodes it as JPEG no wider than maxWidth.
// Images the standard decoders cannot read are passed through unchanged.
func Load(path string, maxWidth int) (Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{MimeType: http.DetectContentType(raw), Data: raw}, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth {
		height := uint(float64(maxWidth) * float64(bounds.Dy()) / float64(bounds.Dx()))
		img = resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Image{MimeType: "image/jpeg", Data: buf.Bytes()}, nil
}
