// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package qr renders URLs as scannable PNG images.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the image width and height in pixels.
const DefaultSize = 300

// Renderer turns text into an image data URL.
type Renderer interface {
	DataURL(text string) (string, error)
}

// PNG renders medium error-correction QR codes.
type PNG struct {
	Size int
}

func (p PNG) DataURL(text string) (string, error) {
	size := p.Size
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
