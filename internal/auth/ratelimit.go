// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package auth

import "time"

// Sign-in lockout configuration.
const (
	LockoutDuration  = 15 * time.Minute
	LockoutThreshold = 7
)

// IsLockedOut reports whether lockedUntil is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// ComputeLockoutTime returns when a lockout triggered by failures ends, or
// nil below the threshold.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	until := time.Now().Add(LockoutDuration)
	return &until
}

// RetryDelay is the suggested wait before the next attempt: 2^(n-1)
// seconds capped at 32s, zero with no failures.
func RetryDelay(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	if failures > 6 {
		return 32 * time.Second
	}
	return time.Duration(1<<(failures-1)) * time.Second
}
