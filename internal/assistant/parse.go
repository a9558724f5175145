package assistant

import (
	"encoding/json"
	"errors"
	"strings"
)

// Model responses are free text that usually, but not always, contains
// the requested JSON. extractJSON pulls the first balanced JSON value
// delimited by open/close out of the text, tolerating markdown fences
// and prose around it.
func extractJSON(text string, opener, closer byte) (string, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.IndexByte(text, opener)
	if start < 0 {
		return "", errors.New("no json value found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unbalanced json value in response")
}

func parseRecommendations(response string) ([]Recommendation, error) {
	raw, err := extractJSON(response, '[', ']')
	if err == nil {
		var recs []Recommendation
		if jsonErr := json.Unmarshal([]byte(raw), &recs); jsonErr == nil && len(recs) > 0 {
			return recs, nil
		}
	}
	return parseRecommendationSections(response)
}

// parseRecommendationSections is the best-effort text parser used when
// no JSON array could be extracted: numbered or bulleted blocks become
// one recommendation each, first line as title.
func parseRecommendationSections(response string) ([]Recommendation, error) {
	var recs []Recommendation
	var current *Recommendation

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isSectionStart(line) {
			if current != nil {
				recs = append(recs, *current)
			}
			current = &Recommendation{
				Priority:    "medium",
				Category:    "general",
				Title:       strings.TrimLeft(line, "0123456789.-*# )"),
				Description: "",
			}
			continue
		}
		if current != nil {
			if current.Description != "" {
				current.Description += " "
			}
			current.Description += line
		}
	}
	if current != nil {
		recs = append(recs, *current)
	}

	if len(recs) == 0 {
		return nil, errors.New("no recommendation sections found in response")
	}
	return recs, nil
}

func isSectionStart(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "#") {
		return true
	}
	if len(line) > 1 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return true
	}
	return false
}

func parseStrategy(response string) (*Strategy, error) {
	raw, err := extractJSON(response, '{', '}')
	if err != nil {
		return nil, err
	}
	var strategy Strategy
	if err := json.Unmarshal([]byte(raw), &strategy); err != nil {
		return nil, err
	}
	if strategy.Summary == "" {
		return nil, errors.New("strategy response missing summary")
	}
	return &strategy, nil
}

func parseAnalysis(response string) (*ContentAnalysis, error) {
	raw, err := extractJSON(response, '{', '}')
	if err != nil {
		return nil, err
	}
	var analysis ContentAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, err
	}
	if analysis.Score < 0 || analysis.Score > 100 {
		return nil, errors.New("analysis score out of range")
	}
	return &analysis, nil
}
