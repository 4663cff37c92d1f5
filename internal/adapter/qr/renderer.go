package qr

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	dataURLPrefix = "data:image/png;base64,"
	defaultSize   = 256
)

// Renderer implements ports.QRRenderer producing PNG data URLs.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewRenderer creates a renderer for size x size images.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = defaultSize
	}
	return &Renderer{size: size, level: qrcode.Medium}
}

// Render encodes content as a QR code PNG data URL.
func (r *Renderer) Render(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qr: empty content")
	}
	png, err := qrcode.Encode(content, r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("qr: encoding %d bytes: %w", len(content), err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
