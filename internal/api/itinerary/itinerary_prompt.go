package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

const systemPrompt = `You are an expert travel planner. You build realistic, day by day itineraries
with real venues that can be found on a map. Always answer by calling the
` + ToolName + ` function. Every day lists its city, country and city coordinates.
Every activity has a unique id in the form <day>-<sequence> and one category out of
attraction, restaurant, transport, accommodation or activity. Use the venue's
official name as the activity title so it can be looked up.`

var durationDays = map[string]int{
	"weekend":   3,
	"week":      7,
	"two-weeks": 14,
	"month":     30,
}

var explicitDays = regexp.MustCompile(`(\d+)\s*(?:days?|dias?)`)

// DayCount maps a duration label to a number of days, defaulting to a week.
func DayCount(duration string) int {
	d := strings.ToLower(strings.TrimSpace(duration))
	if n, ok := durationDays[d]; ok {
		return n
	}
	if m := explicitDays.FindStringSubmatch(d); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return durationDays["week"]
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func userPrompt(p types.PreferenceSummary) string {
	days := DayCount(p.Duration)

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day itinerary.\n\n", days)
	b.WriteString("TRAVELLER PREFERENCES:\n")
	fmt.Fprintf(&b, "    - Destinations: %s\n", strings.Join(p.Destinations, ", "))
	fmt.Fprintf(&b, "    - Duration: %s (%d days)\n", orDefault(p.Duration, "week"), days)
	fmt.Fprintf(&b, "    - Budget: %s\n", orDefault(p.Budget, "moderate"))
	if len(p.TravelStyles) > 0 {
		fmt.Fprintf(&b, "    - Travel styles: [%s]\n", strings.Join(p.TravelStyles, ", "))
	}
	if p.Travelers != "" {
		fmt.Fprintf(&b, "    - Travelling as: %s\n", p.Travelers)
	}
	if p.Interests != "" {
		fmt.Fprintf(&b, "    - Interests: %s\n", p.Interests)
	}
	if p.ConversationContext != "" {
		fmt.Fprintf(&b, "\nCONVERSATION CONTEXT:\n%s\n", p.ConversationContext)
	}
	fmt.Fprintf(&b, `
Return exactly %d days numbered 1 to %d. Plan 3 to 5 activities per day including
meals, and add transport activities between cities.`, days, days)
	return b.String()
}

func buildRequest(p types.PreferenceSummary) (string, string) {
	return systemPrompt, userPrompt(p)
}
