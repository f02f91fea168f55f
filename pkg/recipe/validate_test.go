package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRawCandidate() map[string]interface{} {
	return map[string]interface{}{
		"title": "Dal Tadka",
		"ingredients": []interface{}{
			map[string]interface{}{"name": "Lentils", "quantity": float64(200), "unit": "g"},
			map[string]interface{}{"name": "Water", "quantity": float64(500), "unit": "ml"},
		},
		"servings":          float64(2),
		"prep_time_minutes": float64(30),
		"steps":             []interface{}{"Rinse lentils", "Boil", "Temper with spices"},
		"preparedCount":     float64(0),
	}
}

func TestValidCandidate(t *testing.T) {
	assert.True(t, ValidCandidate(validRawCandidate()))
}

func TestValidCandidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(raw map[string]interface{})
	}{
		{"empty title", func(raw map[string]interface{}) { raw["title"] = "" }},
		{"whitespace title", func(raw map[string]interface{}) { raw["title"] = "   " }},
		{"missing title", func(raw map[string]interface{}) { delete(raw, "title") }},
		{"non-string title", func(raw map[string]interface{}) { raw["title"] = float64(5) }},
		{"empty ingredients", func(raw map[string]interface{}) { raw["ingredients"] = []interface{}{} }},
		{"missing ingredients", func(raw map[string]interface{}) { delete(raw, "ingredients") }},
		{"unit outside enum", func(raw map[string]interface{}) {
			raw["ingredients"] = []interface{}{
				map[string]interface{}{"name": "Rice", "quantity": float64(1), "unit": "kg"},
			}
		}},
		{"empty ingredient name", func(raw map[string]interface{}) {
			raw["ingredients"] = []interface{}{
				map[string]interface{}{"name": "", "quantity": float64(1), "unit": "cup"},
			}
		}},
		{"string quantity", func(raw map[string]interface{}) {
			raw["ingredients"] = []interface{}{
				map[string]interface{}{"name": "Rice", "quantity": "1", "unit": "cup"},
			}
		}},
		{"missing servings", func(raw map[string]interface{}) { delete(raw, "servings") }},
		{"string servings", func(raw map[string]interface{}) { raw["servings"] = "2" }},
		{"missing prep time", func(raw map[string]interface{}) { delete(raw, "prep_time_minutes") }},
		{"empty steps", func(raw map[string]interface{}) { raw["steps"] = []interface{}{} }},
		{"non-string step", func(raw map[string]interface{}) { raw["steps"] = []interface{}{float64(1)} }},
		{"missing preparedCount", func(raw map[string]interface{}) { delete(raw, "preparedCount") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRawCandidate()
			tt.mutate(raw)
			assert.False(t, ValidCandidate(raw))
		})
	}
}

func TestValidCandidateAcceptsEveryAllowedUnit(t *testing.T) {
	for _, unit := range []string{"g", "ml", "tsp", "tbsp", "cup", "piece"} {
		raw := validRawCandidate()
		raw["ingredients"] = []interface{}{
			map[string]interface{}{"name": "Thing", "quantity": float64(1), "unit": unit},
		}
		assert.True(t, ValidCandidate(raw), "unit %s should be allowed", unit)
	}
}
