package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxImageBytes is the largest decoded image accepted from a client.
const MaxImageBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ErrInvalidDataURI is returned when a data: URI cannot be split into its
// media type and base64 payload.
var ErrInvalidDataURI = errors.New("invalid data uri")

// AllowedImageType reports whether mime is one of the accepted image types.
func AllowedImageType(mime string) bool {
	return allowedImageTypes[strings.ToLower(mime)]
}

// ImageAttachment references an image the user attached to a message. Exactly
// one of URL or Data is set; Data holds base64 without the data: prefix.
type ImageAttachment struct {
	MimeType  string
	SizeBytes int
	URL       string
	Data      string
}

// Reference returns the value placed in an image part: the remote URL or a
// data: URI built from the payload.
func (a ImageAttachment) Reference() string {
	if a.URL != "" {
		return a.URL
	}
	return "data:" + a.MimeType + ";base64," + a.Data
}

// DataURI is a decoded data:<mime>;base64,<payload> reference.
type DataURI struct {
	MimeType string
	Data     string
}

// ParseDataURI splits a base64 data: URI. Non-base64 data URIs are rejected.
func ParseDataURI(uri string) (DataURI, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return DataURI{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return DataURI{}, fmt.Errorf("%w: expected base64 media type", ErrInvalidDataURI)
	}
	return DataURI{MimeType: mime, Data: payload}, nil
}

// Bytes decodes the payload.
func (d DataURI) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Data)
}

// IsDataURI reports whether ref is an inline data: reference.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}
