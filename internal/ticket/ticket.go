// Package ticket renders registration tickets as QR codes.
package ticket

import (
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/skip2/go-qrcode"
)

const (
	payloadPrefix = "smartevent:registration"

	// DefaultSize is the PNG edge length in pixels.
	DefaultSize = 256
)

// Payload is the text encoded in the QR code for reg.
func Payload(reg *model.Registration) string {
	return strings.Join([]string{payloadPrefix, reg.ID, reg.EventID, reg.UserID}, ":")
}

// PNG encodes the ticket for reg as a PNG image of size x size pixels.
func PNG(reg *model.Registration, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(Payload(reg), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}
