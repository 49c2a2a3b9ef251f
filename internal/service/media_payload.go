package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

var ErrInvalidMediaPayload = errors.New("invalid media payload")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// mediaPayload is an upload body after normalization. Exactly one of
// remoteURL or data is set.
type mediaPayload struct {
	remoteURL    string
	contentType  string
	declaredType string
	declaredURI  string
	data         []byte
}

// parseMediaPayload accepts a base64 data URI, a bare base64 string or, when
// allowRemote is set, an http(s) URL. The content type is sniffed from the
// decoded bytes and must be one of allowedImageTypes; a declared data URI type
// is ignored.
func parseMediaPayload(file string, allowRemote bool) (*mediaPayload, error) {
	payload, err := decodeMediaPayload(file, allowRemote)
	if err != nil {
		return nil, err
	}
	if payload.remoteURL != "" {
		return payload, nil
	}
	if _, ok := allowedImageTypes[payload.contentType]; !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidMediaPayload, payload.contentType)
	}
	return payload, nil
}

// decodeMediaPayload normalizes file without judging its image format.
func decodeMediaPayload(file string, allowRemote bool) (*mediaPayload, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidMediaPayload)
	}

	lower := strings.ToLower(file)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if !allowRemote {
			return nil, fmt.Errorf("%w: remote urls are not supported by this provider", ErrInvalidMediaPayload)
		}
		return &mediaPayload{remoteURL: file}, nil
	}

	payload := &mediaPayload{}
	encoded := file
	if strings.HasPrefix(lower, "data:") {
		header, body, ok := strings.Cut(file, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data uri", ErrInvalidMediaPayload)
		}
		if !strings.HasSuffix(strings.ToLower(header), ";base64") {
			return nil, fmt.Errorf("%w: data uri must be base64 encoded", ErrInvalidMediaPayload)
		}
		declared, _, _ := strings.Cut(header[len("data:"):], ";")
		payload.declaredType = strings.ToLower(strings.TrimSpace(declared))
		payload.declaredURI = file
		encoded = body
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMediaPayload, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidMediaPayload)
	}
	payload.data = data
	payload.contentType = sniffContentType(data)
	return payload, nil
}

// mediaType prefers the type declared by a data URI over the sniffed one.
// Formats such as SVG or HEIC are not recognized by sniffing.
func (p *mediaPayload) mediaType() string {
	if p.declaredType != "" {
		return p.declaredType
	}
	return p.contentType
}

func (p *mediaPayload) extension() string {
	return allowedImageTypes[p.contentType]
}

func (p *mediaPayload) dataURI() string {
	return "data:" + p.contentType + ";base64," + base64.StdEncoding.EncodeToString(p.data)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func sniffContentType(data []byte) string {
	detected := http.DetectContentType(data)
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return strings.ToLower(detected)
	}
	return mediaType
}
