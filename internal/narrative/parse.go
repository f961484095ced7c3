package narrative

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"ertragswert/server/internal/models"
)

const maxFallbackKeyPoints = 5

// ParseAnalysis turns a model reply into an AnalysisResponse. Malformed JSON is
// repaired when possible; anything else is kept as plain text.
func ParseAnalysis(raw string) *models.AnalysisResponse {
	text := stripCodeFence(raw)

	if resp, ok := decodeAnalysis(text); ok {
		return resp
	}
	if repaired, err := jsonrepair.RepairJSON(text); err == nil {
		if resp, ok := decodeAnalysis(repaired); ok {
			return resp
		}
	}

	return &models.AnalysisResponse{
		Analysis:  strings.TrimSpace(text),
		KeyPoints: extractBullets(text),
	}
}

func decodeAnalysis(s string) (*models.AnalysisResponse, bool) {
	var resp models.AnalysisResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return nil, false
	}
	resp.Analysis = strings.TrimSpace(resp.Analysis)
	if resp.Analysis == "" {
		return nil, false
	}

	points := resp.KeyPoints[:0]
	for _, p := range resp.KeyPoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	resp.KeyPoints = points
	if resp.KeyPoints == nil {
		resp.KeyPoints = []string{}
	}
	return &resp, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractBullets collects markdown list items from free text
func extractBullets(s string) []string {
	points := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, marker) {
				if p := strings.TrimSpace(strings.TrimPrefix(line, marker)); p != "" {
					points = append(points, p)
				}
				break
			}
		}
		if len(points) == maxFallbackKeyPoints {
			break
		}
	}
	return points
}
