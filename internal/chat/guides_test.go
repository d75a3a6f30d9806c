// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/pkg/errutil"
)

func TestDefaultGuides_Golden(t *testing.T) {
	set := chat.DefaultGuides()

	var b strings.Builder
	for _, g := range set.Guides {
		b.WriteString("[" + g.Key + "]\n" + g.Text() + "\n\n")
	}
	b.WriteString("[default]\n" + set.Default + "\n")

	newGolden(t).Assert(t, "offline_guides", []byte(b.String()))
}

func TestGuideSet_Select(t *testing.T) {
	set := chat.DefaultGuides()

	tests := []struct {
		query     string
		wantTitle string
	}{
		{"Heavy BLEEDING from the arm", "SEVERE BLEEDING"},
		{"an adult is choking", "CHOKING - ADULT"},
		{"how do I do CPR", "CPR - UNCONSCIOUS"},
		{"my friend is unconscious", "CPR - UNCONSCIOUS"},
		{"bleeding and choking", "SEVERE BLEEDING"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Contains(t, set.Select(tt.query), tt.wantTitle)
		})
	}

	assert.Equal(t, "CALL 999 NOW. Stay calm. Help is on the way.", set.Select("snake bite"))
}

func TestLoadGuides_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not yaml", "guides: [unterminated"},
		{"missing default", "guides: []"},
		{"guide without steps", "default: call\nguides:\n  - key: burns\n    title: Burns\n    keywords: [burn]\n    steps: []\n"},
		{"bad key", "default: call\nguides:\n  - key: Burns!\n    title: Burns\n    keywords: [burn]\n    steps: [cool]\n"},
		{"unknown field", "default: call\nguides: []\nextra: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chat.LoadGuides([]byte(tt.doc))
			errutil.AssertErrorCode(t, err, "GUIDES_INVALID")
		})
	}
}

func TestLoadGuides_Custom(t *testing.T) {
	set, err := chat.LoadGuides([]byte("default: Call 112\nguides:\n  - key: burns\n    title: BURNS\n    keywords: [burn]\n    steps: [Cool under running water for 20 minutes]\n"))
	require.NoError(t, err)
	assert.Equal(t, "BURNS\n1. Cool under running water for 20 minutes", set.Select("a burn on the hand"))
	assert.Equal(t, "Call 112", set.Select("fracture"))
}

func TestGuidesSchema(t *testing.T) {
	raw, err := chat.GuidesSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, chat.GuidesSchemaID, schema["$id"])
	assert.ElementsMatch(t, []any{"default", "guides"}, schema["required"])
}
