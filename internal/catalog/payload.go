package catalog

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

var (
	// errHTMLPayload marks a response that is the SPA shell instead of data:
	// missing objects are sometimes silently redirected to index.html with a
	// 200 status, and parsing that as JSON would poison the cache.
	errHTMLPayload = errors.New("catalog: payload is an HTML document, not JSON")
)

var gzipMagic = []byte{0x1f, 0x8b}

// decodePayload turns raw object bytes into JSON text: gzip-compressed
// payloads are sniffed by magic number and decompressed (the bucket serves
// .json.gz objects without a Content-Encoding header), a UTF-8 BOM is
// stripped, and HTML fallback documents are rejected.
func decodePayload(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("catalog: opening gzip payload: %w", err)
		}
		defer zr.Close()
		unzipped, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("catalog: decompressing payload: %w", err)
		}
		data = unzipped
	}

	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})
	data = bytes.TrimSpace(data)

	if len(data) == 0 {
		return nil, errors.New("catalog: empty payload")
	}
	if data[0] == '<' {
		return nil, errHTMLPayload
	}
	return data, nil
}

// parseJSONPayload decodes object bytes into a generic JSON value.
func parseJSONPayload(data []byte) (any, error) {
	text, err := decodePayload(data)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(text, &v); err != nil {
		preview := text
		if len(preview) > 80 {
			preview = preview[:80]
		}
		return nil, fmt.Errorf("catalog: invalid JSON payload (starts %q): %w", preview, err)
	}
	return v, nil
}

// coerceList accepts the two historical index shapes: an array, or an object
// whose values are the entries. Object values are ordered by key so the
// result is deterministic.
func coerceList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, t[k])
		}
		return out
	}
	return nil
}
