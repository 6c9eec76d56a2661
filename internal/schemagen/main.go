// Command schemagen writes the JSON schema of the RuleSet document.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/pkg/yaml"
)

var (
	outFile = pflag.StringP("out", "o", "schema.json", "Output file for the generated schema")
	rootDir = pflag.String("root", ".", "Module root directory, used to read doc comments")
)

func main() {
	pflag.Parse()

	out, err := filepath.Abs(*outFile)
	if err != nil {
		log.Fatalf("resolve output path: %v", err)
	}

	err = os.Chdir(*rootDir)
	if err != nil {
		log.Fatalf("change to module root: %v", err)
	}

	gen := yaml.NewSchemaGenerator(rulesets.New(),
		"github.com/macropower/condfmt/api/v1beta1",
		"github.com/macropower/condfmt/api/v1beta1/rulesets",
	)
	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(out, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
