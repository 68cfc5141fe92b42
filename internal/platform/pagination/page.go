// Package pagination normalizes page sizes and encodes opaque cursors.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
)

// ErrInvalidToken is returned for a page token that does not decode.
var ErrInvalidToken = errors.New("invalid page token")

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// EncodeCursor turns the last key of a page into an opaque token.
func EncodeCursor(last uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(last, 10)))
}

// DecodeCursor reverses EncodeCursor. An empty token means the first page.
func DecodeCursor(token string) (last uint64, ok bool, err error) {
	if token == "" {
		return 0, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, false, ErrInvalidToken
	}
	last, err = strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false, ErrInvalidToken
	}
	return last, true, nil
}
