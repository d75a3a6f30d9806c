// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account or session does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an account with the same email already exists.
var ErrDuplicate = errors.New("duplicate")
