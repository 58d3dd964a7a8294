// Package schemas embeds the JSON Schemas for thinkroute's result
// artifacts.
package schemas

import _ "embed"

//go:embed sweep.schema.json
var SweepSchemaJSON string

//go:embed recommendation.schema.json
var RecommendationSchemaJSON string

//go:embed comparison.schema.json
var ComparisonSchemaJSON string
