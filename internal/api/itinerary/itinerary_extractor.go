package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

var errNoItinerary = errors.New("no itinerary found in model response")

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n?(.*?)```")

// draft mirrors types.Itinerary without the fields stamped by the service, so
// whatever the model puts there cannot break decoding.
type draft struct {
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Duration     string          `json:"duration"`
	TotalBudget  string          `json:"totalBudget"`
	Destinations []string        `json:"destinations"`
	Days         []types.DayPlan `json:"days"`
}

// Extract returns the itinerary carried by resp, or nil when neither the tool
// call nor the text holds one.
func Extract(resp llm.ModelResponse) *types.Itinerary {
	if resp.Kind == llm.KindToolCall && resp.ToolCall != nil && resp.ToolCall.Name == ToolName {
		if it, err := decode(resp.ToolCall.Arguments); err == nil {
			return normalize(it)
		}
	}
	if it := extractFromText(resp.Text); it != nil {
		return normalize(it)
	}
	return nil
}

// Validate adapts Extract to the invoker's validation hook.
func Validate(resp llm.ModelResponse) error {
	if Extract(resp) == nil {
		return fmt.Errorf("%w (%s)", errNoItinerary, resp.Kind)
	}
	return nil
}

func extractFromText(text string) *types.Itinerary {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if it, err := decode(m[1]); err == nil {
			return it
		}
	}
	for _, candidate := range objectCandidates(text) {
		if !hasKeys(candidate, "title", "days") {
			continue
		}
		if it, err := decode(candidate); err == nil {
			return it
		}
	}
	return nil
}

func decode(raw string) (*types.Itinerary, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, errNoItinerary
	}
	var d draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode itinerary: %w", err)
	}
	if d.Title == "" && len(d.Days) == 0 {
		return nil, errNoItinerary
	}
	return &types.Itinerary{
		Title:        d.Title,
		Summary:      d.Summary,
		Duration:     d.Duration,
		TotalBudget:  d.TotalBudget,
		Destinations: d.Destinations,
		Days:         d.Days,
	}, nil
}

func hasKeys(candidate string, keys ...string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return false
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

// objectCandidates returns every balanced {...} span in text, outermost first
// in order of their opening brace. Braces inside JSON strings are ignored.
func objectCandidates(text string) []string {
	var out []string
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			out = append(out, text[start:end+1])
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// normalize re-indexes days from 1, assigns every activity the id
// <day>-<seq> from its position and maps unknown categories to activity.
func normalize(it *types.Itinerary) *types.Itinerary {
	if it.Destinations == nil {
		it.Destinations = []string{}
	}
	if it.Days == nil {
		it.Days = []types.DayPlan{}
	}

	for d := range it.Days {
		day := &it.Days[d]
		day.Day = d + 1
		if day.Highlights == nil {
			day.Highlights = []string{}
		}
		if day.Activities == nil {
			day.Activities = []types.Activity{}
		}

		for a := range day.Activities {
			act := &day.Activities[a]
			act.Category = types.ActivityCategory(strings.ToLower(strings.TrimSpace(string(act.Category))))
			if !act.Category.Valid() {
				act.Category = types.CategoryActivity
			}

			// model ids are discarded, positions are the only reliable identity
			act.ID = fmt.Sprintf("%d-%d", day.Day, a+1)
		}
	}
	return it
}
