package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const DefaultImageMIMEType = "image/png"

// Image is an opaque encoded picture with its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

func NewImage(data []byte, mimeType string) Image {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultImageMIMEType
	}

	return Image{Data: data, MIMEType: mimeType}
}

func (i Image) IsZero() bool {
	return len(i.Data) == 0
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as a "data:<mime>;base64,<payload>" string.
func (i Image) DataURL() string {
	if i.IsZero() {
		return ""
	}

	return "data:" + i.mimeType() + ";base64," + i.Base64()
}

func (i Image) mimeType() string {
	if i.MIMEType == "" {
		return DefaultImageMIMEType
	}
	return i.MIMEType
}

func ParseDataURL(raw string) (Image, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data url prefix", ErrInvalidImage)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data url payload", ErrInvalidImage)
	}

	mimeType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return Image{}, fmt.Errorf("%w: unsupported data url encoding %q", ErrInvalidImage, encoding)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return NewImage(data, mimeType), nil
}
