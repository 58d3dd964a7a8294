// Package validation checks result artifacts against the embedded JSON
// Schemas before they are optimized over or reported on.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

var (
	sweepSchema          *jsonschema.Schema
	recommendationSchema *jsonschema.Schema
	comparisonSchema     *jsonschema.Schema
)

func init() {
	sweepSchema = mustCompileSchema(schemas.SweepSchemaJSON, "sweep.schema.json")
	recommendationSchema = mustCompileSchema(schemas.RecommendationSchemaJSON, "recommendation.schema.json")
	comparisonSchema = mustCompileSchema(schemas.ComparisonSchemaJSON, "comparison.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SchemaError lists every schema violation found in one artifact.
type SchemaError struct {
	Path     string
	Artifact string
	Problems []string
}

func (e *SchemaError) Error() string {
	src := e.Path
	if src == "" {
		src = "input"
	}
	return fmt.Sprintf("%s is not a valid %s artifact:\n  %s", src, e.Artifact, strings.Join(e.Problems, "\n  "))
}

// ValidateSweepBytes validates a sweep outcome JSON document.
func ValidateSweepBytes(data []byte) []string {
	return validateJSONBytes(sweepSchema, data)
}

// ValidateRecommendationBytes validates a recommendation set JSON document.
func ValidateRecommendationBytes(data []byte) []string {
	return validateJSONBytes(recommendationSchema, data)
}

// ValidateComparisonBytes validates a comparison report JSON document.
func ValidateComparisonBytes(data []byte) []string {
	return validateJSONBytes(comparisonSchema, data)
}

// LoadSweep reads, validates and decodes a sweep outcome file.
func LoadSweep(path string) (*models.SweepOutcome, error) {
	var outcome models.SweepOutcome
	if err := load(path, "sweep", ValidateSweepBytes, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// LoadComparison reads, validates and decodes a comparison report file.
func LoadComparison(path string) (*models.ComparisonReport, error) {
	var report models.ComparisonReport
	if err := load(path, "comparison", ValidateComparisonBytes, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// LoadRecommendations reads, validates and decodes a recommendation file.
func LoadRecommendations(path string) (*models.RecommendationSet, error) {
	var set models.RecommendationSet
	if err := load(path, "recommendation", ValidateRecommendationBytes, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// DetectArtifact guesses which artifact a JSON document is from its
// top-level keys. It returns "" when it cannot tell.
func DetectArtifact(data []byte) string {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return ""
	}
	switch {
	case keys["results"] != nil:
		return "sweep"
	case keys["routers"] != nil:
		return "comparison"
	case keys["recommendations"] != nil:
		return "recommendation"
	default:
		return ""
	}
}

func load(path, artifact string, validate func([]byte) []string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s file: %w", artifact, err)
	}
	if errs := validate(data); len(errs) > 0 {
		return &SchemaError{Path: path, Artifact: artifact, Problems: errs}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func validateJSONBytes(schema *jsonschema.Schema, data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(schema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
