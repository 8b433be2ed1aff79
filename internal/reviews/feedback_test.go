package reviews

import (
	"encoding/json"
	"testing"
)

func TestValidateFeedback(t *testing.T) {
	valid := []string{
		`{"ATS":{"score":82,"tips":["Add metrics"]}}`,
		`{"ATS":{}, "summary":"ok", "skills":{"score":3}}`,
		`{"ATS":{"score":"n/a"}}`,
	}
	for _, raw := range valid {
		if err := ValidateFeedback(json.RawMessage(raw)); err != nil {
			t.Fatalf("ValidateFeedback(%s): %v", raw, err)
		}
	}

	invalid := []string{
		``,
		`[]`,
		`{"summary":"no ats"}`,
		`{"ATS":"bad"}`,
		`{"ATS":{"tips":"one tip"}}`,
		`{"ATS":{"tips":[1,2]}}`,
		`not json`,
	}
	for _, raw := range invalid {
		if err := ValidateFeedback(json.RawMessage(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestATSDefaults(t *testing.T) {
	tests := []struct {
		raw       string
		wantScore int
		wantTips  int
	}{
		{raw: `{"ATS":{"score":82,"tips":["Add metrics"]}}`, wantScore: 82, wantTips: 1},
		{raw: `{"ATS":{}}`, wantScore: 0, wantTips: 0},
		{raw: `{"ATS":{"score":"high"}}`, wantScore: 0, wantTips: 0},
		{raw: `{}`, wantScore: 0, wantTips: 0},
		{raw: ``, wantScore: 0, wantTips: 0},
		{raw: `{"ATS":{"score":71.6}}`, wantScore: 72, wantTips: 0},
	}
	for _, tt := range tests {
		score, tips := ATS(json.RawMessage(tt.raw))
		if score != tt.wantScore {
			t.Fatalf("ATS(%s) score = %d, want %d", tt.raw, score, tt.wantScore)
		}
		if tips == nil || len(tips) != tt.wantTips {
			t.Fatalf("ATS(%s) tips = %v, want %d entries", tt.raw, tips, tt.wantTips)
		}
	}
}
