// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/internal/directory"
	"github.com/uhailink/uhailink/internal/profile"
	"github.com/uhailink/uhailink/pkg/errutil"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// codeStatus maps error codes to HTTP statuses. Codes not listed fall back
// to suffix rules in statusFor.
var codeStatus = map[string]int{
	"AUTH_INVALID_CREDENTIALS": http.StatusUnauthorized,
	"SESSION_INVALID":          http.StatusUnauthorized,
	"SESSION_EXPIRED":          http.StatusUnauthorized,
	"SESSION_TOKEN_EMPTY":      http.StatusUnauthorized,
	"SESSION_NOT_FOUND":        http.StatusUnauthorized,
	"AUTH_ACCOUNT_LOCKED":      http.StatusLocked,
	"AUTH_EMAIL_TAKEN":         http.StatusConflict,
	"AUTH_INVALID_EMAIL":       http.StatusBadRequest,
	"AUTH_WEAK_PASSWORD":       http.StatusBadRequest,
	"AUTH_EMPTY_PASSWORD":      http.StatusBadRequest,
	"CHAT_EMPTY":               http.StatusBadRequest,
	"CHAT_BLOCKED":             http.StatusUnprocessableEntity,
	"QR_TOKEN_INVALID":         http.StatusNotFound,
	"REQUEST_INVALID":          http.StatusBadRequest,
}

// statusFor picks the HTTP status for err. Repository sentinels win over
// codes; unknown failures are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, directory.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrDuplicate), errors.Is(err, directory.ErrDuplicate), errors.Is(err, auth.ErrDuplicate):
		return http.StatusConflict
	}
	code := errutil.Code(err)
	if status, ok := codeStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_INVALID"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_DUPLICATE"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// publicMessage is the caller-visible text of err. Server errors get a
// generic message.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), slog.Default(), "request failed", err)
	}
	writeJSON(w, status, errorBody{Error: publicMessage(err, status), Code: errutil.Code(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "REQUEST_INVALID"})
}

// decodeJSON reads a single JSON document into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		badRequest(w, "request body must contain a single JSON object")
		return false
	}
	return true
}
