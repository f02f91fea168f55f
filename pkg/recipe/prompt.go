package recipe

import (
	"fmt"
	"strings"

	"MealVote-Backend/domain"
)

// BuildPrompt renders the oracle prompt for a batch of candidate recipes.
// The output shape is over-specified on purpose: exact field names, the unit
// enum, and the exact count keep the downstream parse and validation
// mechanical instead of fuzzy.
func BuildPrompt(preferences domain.Preferences, blockedTitles []string, count int) string {
	orAny := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "any"
		}
		return v
	}

	avoid := "none"
	if len(preferences.Avoid) > 0 {
		avoid = strings.Join(preferences.Avoid, ", ")
	}

	timeLimit := "any"
	if preferences.TimeLimit > 0 {
		timeLimit = fmt.Sprintf("%d", preferences.TimeLimit)
	}

	var b strings.Builder

	b.WriteString("You are a recipe generator. Output ONLY one JSON object (no commentary).\n\n")
	b.WriteString("The generated recipes MUST strictly respect ALL user preferences below.\n")
	b.WriteString("- Absolutely avoid restricted/forbidden ingredients.\n")
	b.WriteString("- Ensure cuisine, diet, meal type, and spice level align exactly with the preferences.\n")
	b.WriteString("- Ensure prep_time_minutes does not exceed the specified limit (if provided).\n")
	b.WriteString("- Use realistic ingredients and steps that are cookable in a home kitchen.\n")

	if len(blockedTitles) > 0 {
		b.WriteString("- Never include or duplicate the blocked recipes listed below.\n\n")
		b.WriteString("DO NOT generate any of these recipes (avoid exact or similar names):\n")
		b.WriteString(strings.Join(blockedTitles, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\nSchema (return exactly this shape):\n")
	b.WriteString("Each recipe must include:\n")
	b.WriteString("- \"title\": string\n")
	b.WriteString("- \"videoUrl\": string\n")
	b.WriteString("- \"ingredients\": an array of 3-5 items, each with { \"name\": string, \"quantity\": number, \"unit\": one of \"g\" | \"ml\" | \"tsp\" | \"tbsp\" | \"cup\" | \"piece\" }\n")
	b.WriteString("- \"servings\": integer\n")
	b.WriteString("- \"prep_time_minutes\": integer\n")
	b.WriteString("- \"steps\": array of 3-5 strings\n\n")

	fmt.Fprintf(&b, "**IMPORTANT**:\n- You must return exactly %d objects inside the \"recipes\" array.\n", count)
	b.WriteString("- Do not add explanations, comments, or text outside the JSON.\n\n")
	b.WriteString("{\n  \"recipes\": [\n    {\n      \"title\": \"string\",\n      \"videoUrl\": \"string\",\n      \"ingredients\": [\n        { \"name\": \"string\", \"quantity\": number, \"unit\": \"g\" | \"ml\" | \"tsp\" | \"tbsp\" | \"cup\" | \"piece\" }\n      ],\n      \"servings\": number,\n      \"prep_time_minutes\": number,\n      \"steps\": [\"string\", \"string\"]\n    }\n  ]\n}\n\n")

	b.WriteString("STRICT USER PREFERENCES (must be followed exactly):\n")
	fmt.Fprintf(&b, "- Cuisine: %s\n", orAny(preferences.Cuisine))
	fmt.Fprintf(&b, "- Diet: %s\n", orAny(preferences.Diet))
	fmt.Fprintf(&b, "- Avoid ingredients (must NOT appear in recipe): %s\n", avoid)
	fmt.Fprintf(&b, "- Spice level: %s\n", orAny(preferences.SpiceLevel))
	fmt.Fprintf(&b, "- Meal type: %s\n", orAny(preferences.MealType))
	fmt.Fprintf(&b, "- Maximum prep/cook time: %s minutes\n", timeLimit)

	return b.String()
}
