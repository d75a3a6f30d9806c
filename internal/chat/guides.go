// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// OfflinePrefix marks a reply produced without the completion endpoint.
const OfflinePrefix = "⚠️ OFFLINE MODE\n\n"

//go:embed guides.yaml
var builtinGuides []byte

// Guide is a short static first-aid procedure.
type Guide struct {
	Key      string   `yaml:"key" json:"key" jsonschema:"pattern=^[a-z][a-z0-9-]*$"`
	Title    string   `yaml:"title" json:"title" jsonschema:"minLength=1"`
	Keywords []string `yaml:"keywords" json:"keywords" jsonschema:"minItems=1"`
	Steps    []string `yaml:"steps" json:"steps" jsonschema:"minItems=1"`
}

// Text renders the guide as a title followed by numbered steps.
func (g Guide) Text() string {
	var b strings.Builder
	b.WriteString(g.Title)
	for i, step := range g.Steps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, step)
	}
	return b.String()
}

// GuideSet is the document format for offline guides. Guides are matched
// in order; the first guide with a keyword contained in the query wins.
type GuideSet struct {
	Default string  `yaml:"default" json:"default" jsonschema:"minLength=1"`
	Guides  []Guide `yaml:"guides" json:"guides"`
}

// LoadGuides parses and validates a guide document.
func LoadGuides(data []byte) (*GuideSet, error) {
	if err := ValidateGuides(data); err != nil {
		return nil, err
	}
	var set GuideSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, oops.Code("GUIDES_INVALID").Wrap(err)
	}
	return &set, nil
}

// DefaultGuides returns the built-in guides.
func DefaultGuides() *GuideSet {
	set, err := LoadGuides(builtinGuides)
	if err != nil {
		panic(fmt.Sprintf("built-in guides are invalid: %v", err))
	}
	return set
}

// Select returns the text of the guide matching query, or the default.
func (s *GuideSet) Select(query string) string {
	folded := cases.Fold().String(query)
	for _, g := range s.Guides {
		for _, kw := range g.Keywords {
			if strings.Contains(folded, cases.Fold().String(kw)) {
				return g.Text()
			}
		}
	}
	return s.Default
}
