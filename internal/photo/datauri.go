// Package photo converts site photographs between files, data URIs and
// the JPEG form embedded in reports.
package photo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidDataURI is returned when a photo value cannot be decoded.
	ErrInvalidDataURI = errors.New("invalid data URI")
	// ErrEmpty is returned for a photo with no content.
	ErrEmpty = errors.New("empty photo")
)

// DataURI formats raw image bytes as a base64 data URI. The MIME type is
// sniffed from the content.
func DataURI(data []byte) string {
	return "data:" + sniff(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI. A bare base64 string without
// the "data:" header is accepted as well.
func ParseDataURI(s string) (data []byte, mime string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrEmpty
	}

	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
		}
		params := strings.Split(header, ";")
		if params[len(params)-1] != "base64" {
			return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
		}
		mime = params[0]
		payload = rest
	}

	data, err = decodeBase64(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if mime == "" {
		mime = sniff(data)
	}
	return data, mime, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func sniff(data []byte) string {
	mime := http.DetectContentType(data)
	if mime == "application/octet-stream" && isTIFF(data) {
		return "image/tiff"
	}
	return mime
}

func isTIFF(data []byte) bool {
	return len(data) >= 4 &&
		(string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*")
}
