package metadata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const manifestSchemaURL = "https://codemodel.local/manifest.schema.json"

//go:embed manifest.schema.json
var manifestSchemaJSON []byte

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(manifestSchemaJSON)); err != nil {
			manifestSchemaErr = err
			return
		}
		manifestSchema, manifestSchemaErr = compiler.Compile(manifestSchemaURL)
	})
	return manifestSchema, manifestSchemaErr
}

// ValidateManifest checks YAML manifest data against the manifest schema.
func ValidateManifest(data []byte) error {
	schema, err := compiledManifestSchema()
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	// Round-trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize manifest for schema validation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize manifest for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("manifest schema validation failed: %w", err)
	}
	return nil
}
