package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"muhabbet/model"
)

var (
	errImageTooLarge = errors.New("image exceeds size limit")
	errImageType     = errors.New("unsupported image type")
	errImageEncoding = errors.New("image payload is not valid base64")
	errImageURL      = errors.New("image url must be http(s) or a data uri")
)

// parseAttachment validates the image fields of a chat request. imageBase64
// may be a bare payload or a full data URI; a data URI in imageURL is treated
// the same way. Remote URLs are passed through unchecked.
func parseAttachment(imageURL, imageBase64 string) (*model.ImageAttachment, error) {
	imageURL = strings.TrimSpace(imageURL)
	imageBase64 = strings.TrimSpace(imageBase64)

	switch {
	case imageBase64 != "":
		return inlineAttachment(imageBase64)
	case model.IsDataURI(imageURL):
		return inlineAttachment(imageURL)
	case imageURL != "":
		u, err := url.Parse(imageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, errImageURL
		}
		return &model.ImageAttachment{URL: imageURL}, nil
	default:
		return nil, nil
	}
}

func inlineAttachment(payload string) (*model.ImageAttachment, error) {
	if model.IsDataURI(payload) {
		d, err := model.ParseDataURI(payload)
		if err != nil {
			return nil, errImageEncoding
		}
		payload = d.Data
	}

	// Reject before decoding anything that cannot fit the limit.
	if base64.StdEncoding.DecodedLen(len(payload)) > model.MaxImageBytes+2 {
		return nil, errImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errImageEncoding
	}
	if len(data) > model.MaxImageBytes {
		return nil, errImageTooLarge
	}

	mime := http.DetectContentType(data)
	if !model.AllowedImageType(mime) {
		return nil, errImageType
	}

	return &model.ImageAttachment{
		MimeType:  mime,
		SizeBytes: len(data),
		Data:      payload,
	}, nil
}
