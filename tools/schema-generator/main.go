package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/mattsolo1/grove-macrocycle/cmd"
	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&cmd.MacrocycleConfig{})
	schema.Title = "Macrocycle Configuration"
	schema.Description = "Schema for the 'macrocycle' extension in grove.yml."

	// Make all fields optional - Grove configs should not require any fields
	schema.Required = nil

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}

	// Write to the package root
	if err := os.WriteFile("macrocycle.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated config schema at macrocycle.schema.json")

	macroData, err := macro.SchemaJSON()
	if err != nil {
		log.Fatalf("Error marshaling macro schema: %v", err)
	}

	if err := os.WriteFile("macro.schema.json", macroData, 0644); err != nil {
		log.Fatalf("Error writing macro schema file: %v", err)
	}

	log.Printf("Successfully generated macro schema at macro.schema.json")
}
