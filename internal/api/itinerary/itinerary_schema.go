package itinerary

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
)

// ToolName is the function the model is forced to call.
const ToolName = "create_itinerary"

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func strList(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Description: desc, Items: &jsonschema.Definition{Type: jsonschema.String}}
}

var coordinatesSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"lat": {Type: jsonschema.Number},
		"lng": {Type: jsonschema.Number},
	},
	Required: []string{"lat", "lng"},
}

var activitySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"id":          str("Unique id in the form <day>-<sequence>, e.g. 1-1"),
		"time":        str("Time of day, e.g. 09:00"),
		"title":       str("Name of the venue or activity, as it would appear on a map"),
		"description": str("Two or three sentences about the activity"),
		"location":    str("Neighbourhood or address"),
		"coordinates": coordinatesSchema,
		"duration":    str("Expected duration, e.g. 2h"),
		"category": {
			Type: jsonschema.String,
			Enum: []string{"attraction", "restaurant", "transport", "accommodation", "activity"},
		},
		"tips": str("Optional insider tip"),
		"cost": str("Optional cost estimate"),
	},
	Required: []string{"id", "time", "title", "description", "location", "duration", "category"},
}

var daySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"day":         {Type: jsonschema.Integer, Description: "1-based day number"},
		"date":        str("Weekday label, e.g. Day 1 - Monday"),
		"city":        str("City the day is spent in"),
		"country":     str("Country of the city"),
		"coordinates": coordinatesSchema,
		"highlights":  strList("Highlights of the day"),
		"activities":  {Type: jsonschema.Array, Items: &activitySchema},
	},
	Required: []string{"day", "city", "country", "activities"},
}

// Tool describes the itinerary function declaration.
func Tool() llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Create a complete day by day travel itinerary",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"title":        str("Short, evocative title for the trip"),
				"summary":      str("One paragraph overview"),
				"duration":     str("Trip length label, e.g. 7 days"),
				"totalBudget":  str("Estimated total budget per person"),
				"destinations": strList("Cities visited, in order"),
				"days":         {Type: jsonschema.Array, Items: &daySchema},
			},
			Required: []string{"title", "summary", "duration", "days"},
		},
	}
}
