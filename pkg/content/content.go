// Package content implements the "contentEncoding" and "contentMediaType"
// checks.
package content

import (
	"errors"
	"strings"

	"github.com/cristalhq/base64"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
)

// Errors returned by Decode and Check.
var (
	ErrNotBase64           = errors.New("content is not a base64 string")
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
	ErrNotJSON             = errors.New("content is not JSON")
	ErrMediaType           = errors.New("content does not match media type")
)

// Decode decodes s according to encoding. An empty encoding returns s
// unchanged.
func Decode(encoding, s string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "":
		return []byte(s), nil
	case "base64":
		src := []byte(s)
		dst := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
		n, err := base64.StdEncoding.Decode(dst, src)
		if err != nil {
			return nil, ErrNotBase64
		}
		return dst[:n], nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}

// Check verifies that data is of mediaType. JSON is checked by parsing;
// other types by content sniffing.
func Check(mediaType string, data []byte) error {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0]))
	switch mt {
	case "application/json":
		if !json.Valid(data) {
			return ErrNotJSON
		}
		return nil
	case "":
		return nil
	default:
		if !mimetype.Detect(data).Is(mt) {
			return ErrMediaType
		}
		return nil
	}
}
