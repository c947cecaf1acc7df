package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/elementipelago/config"
)

func main() {
	outputPath := flag.String("out", filepath.Join("schema", "elementipelago.schema.json"), "output file")
	flag.Parse()

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	if err := os.WriteFile(*outputPath, append(schemaBytes, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated config schema at %s", *outputPath)
}
