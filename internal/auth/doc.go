// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package auth manages UhaiLink accounts and their browser sessions.
//
// # Domain Types
//
// Account and Session values should be built with NewAccount and
// NewSession, which validate their inputs. Repositories receive
// pre-validated values.
//
// # Session changes
//
// Service publishes a change on the Hub whenever a session begins, ends, or
// expires. Views tracking access subscribe to the Hub and re-evaluate on
// every change.
package auth
