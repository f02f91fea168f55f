package recipe

import "strings"

var allowedUnits = map[string]bool{
	"g":     true,
	"ml":    true,
	"tsp":   true,
	"tbsp":  true,
	"cup":   true,
	"piece": true,
}

// ValidCandidate reports whether a raw oracle candidate has the required
// shape. Pure predicate; rejected candidates are discarded and re-requested,
// never persisted and never surfaced as an error.
func ValidCandidate(raw map[string]interface{}) bool {
	title, ok := raw["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return false
	}

	ingredients, ok := raw["ingredients"].([]interface{})
	if !ok || len(ingredients) == 0 {
		return false
	}
	for _, ing := range ingredients {
		ingMap, ok := ing.(map[string]interface{})
		if !ok {
			return false
		}
		name, ok := ingMap["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			return false
		}
		if _, ok := ingMap["quantity"].(float64); !ok {
			return false
		}
		unit, ok := ingMap["unit"].(string)
		if !ok || !allowedUnits[unit] {
			return false
		}
	}

	if _, ok := raw["servings"].(float64); !ok {
		return false
	}
	if _, ok := raw["prep_time_minutes"].(float64); !ok {
		return false
	}

	steps, ok := raw["steps"].([]interface{})
	if !ok || len(steps) == 0 {
		return false
	}
	for _, step := range steps {
		if _, ok := step.(string); !ok {
			return false
		}
	}

	if _, ok := raw["preparedCount"].(float64); !ok {
		return false
	}

	return true
}
