package content

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const NotAvailable = "N/A"

type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is one accordion panel of a recommendation plan.
type Card struct {
	Title string   `json:"title"`
	Rows  []Row    `json:"rows,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Field walks nested objects and formats the leaf. Anything missing renders
// as "N/A".
func Field(section any, path ...string) string {
	cur := section
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return NotAvailable
		}
		cur, ok = obj[key]
		if !ok {
			return NotAvailable
		}
	}
	return format(cur)
}

// Items lists the entries under key (or the section itself when key is
// empty). An absent or empty list yields a single "No <label> available" line.
func Items(section any, key, label string) []string {
	cur := section
	if key != "" {
		obj, ok := section.(map[string]any)
		if !ok {
			return []string{missing(label)}
		}
		cur = obj[key]
	}

	list, ok := cur.([]any)
	if !ok || len(list) == 0 {
		return []string{missing(label)}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, describe(item))
	}
	return out
}

// Cards lays out a recommendation plan as accordion panels.
func Cards(rec *Recommendations) []Card {
	if rec == nil {
		return nil
	}
	return []Card{
		{
			Title: "Your Profile",
			Rows: []Row{
				{Label: "Age", Value: Field(rec.UserData, "age")},
				{Label: "Gender", Value: Field(rec.UserData, "gender")},
				{Label: "Height (cm)", Value: Field(rec.UserData, "height_cm")},
				{Label: "Weight (kg)", Value: Field(rec.UserData, "weight_kg")},
				{Label: "Activity Level", Value: Field(rec.UserData, "activity_level")},
				{Label: "Fitness Goal", Value: Field(rec.UserData, "fitness_goal")},
			},
		},
		{
			Title: "Goal Plan",
			Rows: []Row{
				{Label: "Goal", Value: Field(rec.GoalPlan, "goal")},
				{Label: "Daily Calories", Value: Field(rec.GoalPlan, "daily_calories")},
				{Label: "Duration", Value: Field(rec.GoalPlan, "duration")},
			},
			Items: Items(rec.GoalPlan, "phases", "phases"),
		},
		{
			Title: "Meal Recommendations",
			Items: sectionItems(rec.MealRecommendations, "meals", "meal recommendations"),
		},
		{
			Title: "Exercise Recommendations",
			Items: sectionItems(rec.ExerciseRecommendations, "exercises", "exercise recommendations"),
		},
	}
}

func sectionItems(section any, key, label string) []string {
	if _, ok := section.([]any); ok {
		return Items(section, "", label)
	}
	return Items(section, key, label)
}

func missing(label string) string {
	return "No " + label + " available"
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return NotAvailable
	case string:
		if strings.TrimSpace(t) == "" {
			return NotAvailable
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, describe(item))
		}
		if len(parts) == 0 {
			return NotAvailable
		}
		return strings.Join(parts, ", ")
	default:
		return describe(v)
	}
}

// describe prefers a name-like field for objects and falls back to sorted
// key=value pairs.
func describe(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return format(v)
	}
	for _, key := range []string{"name", "title", "meal", "exercise", "description"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, format(obj[k])))
	}
	if len(parts) == 0 {
		return NotAvailable
	}
	return strings.Join(parts, ", ")
}
