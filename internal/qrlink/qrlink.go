// Package qrlink renders the shareable artifact for a lecture session: a
// QR code wrapping the student check-in URL. The admission pipeline only
// hands over the session id and expiry; everything about presentation
// lives here.
package qrlink

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const pngSize = 256

// Renderer builds check-in links and QR images for sessions.
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer. baseURL is the public address students
// reach, e.g. "https://attend.example.edu".
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: baseURL}
}

// CheckInURL returns the URL a student lands on after scanning. The
// expiry rides along so the page can show a countdown; the backend still
// decides admission from its own clock.
func (r *Renderer) CheckInURL(sessionID string, expiresAt time.Time) string {
	q := url.Values{}
	q.Set("lecture", sessionID)
	q.Set("expires", fmt.Sprintf("%d", expiresAt.Unix()))
	return r.baseURL + "/checkin?" + q.Encode()
}

// PNG renders the QR code image for a session.
func (r *Renderer) PNG(sessionID string, expiresAt time.Time) ([]byte, error) {
	png, err := qrcode.Encode(r.CheckInURL(sessionID, expiresAt), qrcode.Medium, pngSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL renders the QR code as a base64 png data URL, ready to drop
// into an <img> tag.
func (r *Renderer) DataURL(sessionID string, expiresAt time.Time) (string, error) {
	png, err := r.PNG(sessionID, expiresAt)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
