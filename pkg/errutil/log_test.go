// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhailink/uhailink/pkg/errutil"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_OopsErrorCarriesCodeAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("QR_TOKEN_INVALID").With("token_prefix", "abcd1234").Errorf("token not active")
	errutil.LogError(logger, "emergency view failed", err)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "emergency view failed", entry["msg"])
	assert.Equal(t, "QR_TOKEN_INVALID", entry["code"])
	assert.Contains(t, entry["context"], "token_prefix")
}

func TestLogError_StandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("connection reset"))

	entry := decodeEntry(t, &buf)
	assert.Contains(t, entry["error"], "connection reset")
	assert.NotContains(t, entry, "code")
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"oops with code", oops.Code("SESSION_INVALID").Errorf("bad"), "SESSION_INVALID"},
		{"wrapped oops", oops.Wrapf(oops.Code("INNER").Errorf("x"), "outer"), "INNER"},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func TestAssertErrorHelpers(t *testing.T) {
	err := oops.Code("MY_CODE").With("user_id", "123").Errorf("test error")
	errutil.AssertErrorCode(t, err, "MY_CODE")
	errutil.AssertErrorContext(t, err, "user_id", "123")
}
