// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// GuidesSchemaID is the $id of the guide document schema.
const GuidesSchemaID = "https://uhailink.dev/schemas/guides.schema.json"

var compiledGuides = sync.OnceValues(compileGuidesSchema)

// GuidesSchema generates the JSON Schema for guide documents.
func GuidesSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&GuideSet{})
	schema.ID = jsonschema.ID(GuidesSchemaID)
	schema.Title = "UhaiLink Offline Guides"
	schema.Description = "Static first-aid guides shown when the assistant is offline"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("GUIDES_SCHEMA_FAILED").Wrap(err)
	}
	return data, nil
}

func compileGuidesSchema() (*jschema.Schema, error) {
	raw, err := GuidesSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, oops.Code("GUIDES_SCHEMA_FAILED").Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("guides.schema.json", doc); err != nil {
		return nil, oops.Code("GUIDES_SCHEMA_FAILED").Wrap(err)
	}
	sch, err := c.Compile("guides.schema.json")
	if err != nil {
		return nil, oops.Code("GUIDES_SCHEMA_FAILED").Wrap(err)
	}
	return sch, nil
}

// ValidateGuides checks a YAML guide document against GuidesSchema.
func ValidateGuides(data []byte) error {
	if len(data) == 0 {
		return oops.Code("GUIDES_INVALID").Errorf("guide document is empty")
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("GUIDES_INVALID").Wrap(err)
	}
	sch, err := compiledGuides()
	if err != nil {
		return err
	}
	if err := sch.Validate(jsonCompatible(doc)); err != nil {
		return oops.Code("GUIDES_INVALID").Wrap(err)
	}
	return nil
}

// jsonCompatible round-trips v through JSON so numbers and maps take the
// shapes the validator expects.
func jsonCompatible(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
