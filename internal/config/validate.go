package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
// An empty cueFile validates against the embedded mission schema.
func ValidateWithCue(configFile, cueFile string) error {
	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	schemaBytes := missionSchema
	if cueFile != "" {
		schemaBytes, err = os.ReadFile(cueFile)
		if err != nil {
			return fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}
	return ValidateBytes(configFile, yamlBytes, schemaBytes, "#Mission")
}

// ValidateBytes checks YAML data against the named definition of a CUE schema.
func ValidateBytes(name string, yamlBytes, schemaBytes []byte, definition string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaBytes)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile CUE schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("schema has no %s definition", definition)
	}

	file, err := cueyaml.Extract(name, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML %s: %w", name, err)
	}
	data := ctx.BuildFile(file)
	if err := data.Err(); err != nil {
		return fmt.Errorf("cannot build YAML %s: %w", name, err)
	}

	final := def.Unify(data)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
