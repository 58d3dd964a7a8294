package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/thinkroute/internal/models"
)

// rawScores is the loosely typed shape oracles answer with. Field names
// accept both the short and the *_score spellings.
type rawScores struct {
	Breadth      any    `mapstructure:"breadth"`
	BreadthScore any    `mapstructure:"breadth_score"`
	Depth        any    `mapstructure:"depth"`
	DepthScore   any    `mapstructure:"depth_score"`
	Confidence   any    `mapstructure:"confidence"`
	ModeGuess    any    `mapstructure:"mode_guess"`
	Reasoning    any    `mapstructure:"reasoning_type"`
	Rationale    string `mapstructure:"rationale"`
}

// ParseFields turns decoded oracle output into an OracleResponse. Missing,
// unparseable or out of range breadth/depth values are an
// *models.OracleParseError. A bad confidence is dropped, not an error.
func ParseFields(fields map[string]any) (*models.OracleResponse, error) {
	var raw rawScores
	if err := mapstructure.WeakDecode(fields, &raw); err != nil {
		return nil, &models.OracleParseError{Field: "response", Err: err}
	}
	return raw.toResponse()
}

func (raw rawScores) toResponse() (*models.OracleResponse, error) {
	breadth, err := parseScore("breadth", firstNonNil(raw.Breadth, raw.BreadthScore))
	if err != nil {
		return nil, err
	}
	depth, err := parseScore("depth", firstNonNil(raw.Depth, raw.DepthScore))
	if err != nil {
		return nil, err
	}

	resp := &models.OracleResponse{
		Scores:    models.ScoreVector{Breadth: breadth, Depth: depth},
		Rationale: strings.TrimSpace(raw.Rationale),
		ModeGuess: models.ModeUnknown,
	}

	if guess := firstNonNil(raw.ModeGuess, raw.Reasoning); guess != nil {
		resp.ModeGuess = models.ParseMode(fmt.Sprint(guess))
	}

	if raw.Confidence != nil {
		if c, err := parseNumber(raw.Confidence); err == nil && c >= 0 && c <= 1 {
			resp.Confidence = &c
		}
	}

	return resp, nil
}

// ParseText parses a free-text oracle answer. It accepts a JSON object
// anywhere in the text, or "key: value" lines.
func ParseText(text string) (*models.OracleResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &models.OracleParseError{Field: "response", Err: errors.New("empty response")}
	}

	if obj, ok := extractJSONObject(text); ok {
		var fields map[string]any
		if err := json.Unmarshal([]byte(obj), &fields); err == nil {
			return ParseFields(fields)
		}
	}

	fields := map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*-# `"))
		key = strings.ReplaceAll(key, " ", "_")
		fields[key] = strings.TrimSpace(value)
	}

	resp, err := ParseFields(fields)
	if err != nil {
		var parseErr *models.OracleParseError
		if errors.As(err, &parseErr) && parseErr.Raw == "" {
			parseErr.Raw = text
		}
		return nil, err
	}
	return resp, nil
}

func parseScore(field string, v any) (float64, error) {
	if v == nil {
		return 0, &models.OracleParseError{Field: field, Err: errors.New("missing")}
	}
	f, err := parseNumber(v)
	if err != nil {
		return 0, &models.OracleParseError{Field: field, Raw: fmt.Sprint(v), Err: err}
	}
	if f < 0 || f > 1 {
		return 0, &models.OracleParseError{Field: field, Raw: fmt.Sprint(v), Err: errors.New("outside [0,1]")}
	}
	return f, nil
}

// parseNumber accepts finite numbers and numeric strings. Strings may
// carry a trailing annotation, as in "0.8 (high)".
func parseNumber(v any) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		fields := strings.Fields(n)
		if len(fields) == 0 {
			return 0, errors.New("empty value")
		}
		return strconv.ParseFloat(strings.TrimRight(fields[0], ",;"), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
