// Package qr renders ticket verification URLs as QR code images.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Encoder renders QR codes as PNG data URLs
type Encoder struct {
	size int
}

// NewEncoder creates an Encoder. size is the PNG edge length in
// pixels; zero or negative falls back to the default.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = defaultSize
	}
	return &Encoder{size: size}
}

// VerifyURL builds the URL a scanned QR code resolves to
func VerifyURL(baseURL, token string) string {
	return fmt.Sprintf("%s/ticket/verify/%s", strings.TrimRight(baseURL, "/"), token)
}

// Encode renders the payload as a PNG QR code and returns it as a
// data URL suitable for an <img> src attribute.
func (e *Encoder) Encode(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, e.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
