// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/text/cases"
)

// BlockedMessage is shown when a message is rejected locally.
const BlockedMessage = "This request is outside first aid scope."

// ErrBlocked marks a message rejected by the blocklist.
var ErrBlocked = errors.New("blocked")

// DefaultBlockedTerms are rejected out of the box.
var DefaultBlockedTerms = []string{"suicide", "kill", "harm", "overdose", "prescription", "dosage"}

// Blocklist rejects messages containing unsafe terms, ignoring case.
type Blocklist struct {
	terms []string
}

// NewBlocklist creates a Blocklist. With no terms, DefaultBlockedTerms is
// used.
func NewBlocklist(terms ...string) *Blocklist {
	if len(terms) == 0 {
		terms = DefaultBlockedTerms
	}
	fold := cases.Fold()
	b := &Blocklist{terms: make([]string, 0, len(terms))}
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			b.terms = append(b.terms, fold.String(t))
		}
	}
	return b
}

// Check returns an error wrapping ErrBlocked when text contains a blocked
// term.
func (b *Blocklist) Check(text string) error {
	folded := cases.Fold().String(text)
	for _, term := range b.terms {
		if strings.Contains(folded, term) {
			return oops.Code("CHAT_BLOCKED").With("term", term).Wrapf(ErrBlocked, BlockedMessage)
		}
	}
	return nil
}

// Terms returns the folded terms.
func (b *Blocklist) Terms() []string {
	return append([]string(nil), b.terms...)
}
