// Package notify delivers validation requests to human approvers, either as
// Teams Adaptive Cards over the Microsoft Graph API or as HTML email with a
// tokenized response link.
package notify

import (
	"fmt"
	"sort"
	"strings"
)

// ProgressFunc reports delivery progress. Callers may pass nil.
type ProgressFunc func(progress, total float64, message string)

// sensitiveKeys are entity fields that must never reach an approver-facing
// payload: internal identifiers and search artifacts.
var sensitiveKeys = map[string]bool{
	"id":            true,
	"tenant_id":     true,
	"embedding":     true,
	"search_vector": true,
}

// BuildValidationCard renders the Adaptive Card shown in Teams: the question,
// a fact table of the entity's current data, a corrections input, a three-way
// approval choice defaulting to approved, and submit/details actions.
func BuildValidationCard(validationID, question string, currentInfo map[string]any, entityName, portalBaseURL string) map[string]any {
	keys := make([]string, 0, len(currentInfo))
	for k := range currentInfo {
		if !sensitiveKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	facts := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		facts = append(facts, map[string]any{
			"title": titleCase(k),
			"value": fmt.Sprintf("%v", currentInfo[k]),
		})
	}

	return map[string]any{
		"type":    "AdaptiveCard",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"version": "1.4",
		"body": []map[string]any{
			{
				"type":  "Container",
				"style": "emphasis",
				"items": []map[string]any{
					{
						"type":   "TextBlock",
						"text":   "Resource Validation Request",
						"weight": "Bolder",
						"size":   "Large",
					},
					{
						"type":     "TextBlock",
						"text":     fmt.Sprintf("Regarding: %s", entityName),
						"isSubtle": true,
						"spacing":  "None",
					},
				},
			},
			{
				"type":    "Container",
				"spacing": "Large",
				"items": []map[string]any{
					{"type": "TextBlock", "text": question, "wrap": true, "size": "Medium"},
				},
			},
			{
				"type":    "Container",
				"spacing": "Medium",
				"items": []map[string]any{
					{"type": "TextBlock", "text": "Current Information:", "weight": "Bolder"},
					{"type": "FactSet", "facts": facts},
				},
			},
			{
				"type":     "TextBlock",
				"text":     "Please confirm if this information is accurate or provide corrections below.",
				"wrap":     true,
				"spacing":  "Medium",
				"isSubtle": true,
			},
			{
				"type":        "Input.Text",
				"id":          "corrections",
				"placeholder": "Enter any corrections or updates here...",
				"isMultiline": true,
				"maxLength":   2000,
			},
			{
				"type":  "Input.ChoiceSet",
				"id":    "approval_status",
				"style": "expanded",
				"choices": []map[string]any{
					{"title": "Information is accurate", "value": "approved"},
					{"title": "Needs corrections (see above)", "value": "corrections_needed"},
					{"title": "Cannot be allocated", "value": "rejected"},
				},
				"value": "approved",
			},
		},
		"actions": []map[string]any{
			{
				"type":  "Action.Execute",
				"title": "Submit Response",
				"verb":  "submit_validation",
				"data": map[string]any{
					"validation_id": validationID,
				},
				"style": "positive",
			},
			{
				"type":  "Action.OpenUrl",
				"title": "View Full Details",
				"url":   fmt.Sprintf("%s/validations/%s", strings.TrimRight(portalBaseURL, "/"), validationID),
			},
		},
	}
}

// titleCase turns a snake_case column name into a display label,
// e.g. "hourly_rate" -> "Hourly Rate".
func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
