// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package qr renders the emergency profile link as a QR code image.
package qr

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/samber/oops"
	"github.com/skip2/go-qrcode"
	"github.com/zeebo/blake3"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// PayloadURL returns the link encoded in a profile QR code.
func PayloadURL(origin, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", oops.Code("QR_INVALID_ORIGIN").With("origin", origin).Errorf("origin must be an absolute URL")
	}
	if token == "" {
		return "", oops.Code("QR_TOKEN_EMPTY").Errorf("token cannot be empty")
	}
	return u.String() + "/profile/" + url.PathEscape(token), nil
}

// Image is an encoded QR code.
type Image struct {
	PNG  []byte
	ETag string
}

// Encode renders content as a PNG with medium error recovery.
func Encode(content string, size int) (*Image, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, oops.Code("QR_ENCODE_FAILED").With("size", size).Wrap(err)
	}
	return &Image{PNG: png, ETag: ETag(png)}, nil
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	sum := blake3.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// Filename is the suggested download name for a token's QR image.
func Filename(token string) string {
	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "uhailink-qr-" + prefix + ".png"
}
