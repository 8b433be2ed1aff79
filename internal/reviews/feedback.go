package reviews

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// feedbackSchema is the minimum shape accepted from the oracle. Sections other
// than ATS pass through untouched; ATS.score is not type-checked here because
// readers fall back to 0.
const feedbackSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["ATS"],
  "properties": {
    "ATS": {
      "type": "object",
      "properties": {
        "tips": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    }
  }
}`

var feedbackSchemaLoader = gojsonschema.NewStringLoader(feedbackSchema)

// ValidateFeedback checks raw against the feedback schema.
func ValidateFeedback(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("feedback is empty")
	}
	result, err := gojsonschema.Validate(feedbackSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("feedback is not valid json: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("feedback shape: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// ATS extracts the ATS score and tips. A missing or non-numeric score is 0 and
// missing tips are an empty slice.
func ATS(raw json.RawMessage) (int, []string) {
	tips := []string{}
	if len(raw) == 0 {
		return 0, tips
	}
	var doc struct {
		ATS struct {
			Score any   `json:"score"`
			Tips  []any `json:"tips"`
		} `json:"ATS"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, tips
	}
	for _, t := range doc.ATS.Tips {
		if s, ok := t.(string); ok {
			tips = append(tips, s)
		}
	}
	score := 0
	if f, ok := doc.ATS.Score.(float64); ok && !math.IsNaN(f) {
		score = int(math.Round(f))
	}
	return score, tips
}
