// internal/workers/data-access/index-assessment/validation.go
package indexassessment

import "aiq-assessment/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"assessmentId", "industry", "email", "totalScore", "maxScore", "percentageScore"},
		Properties: map[string]validation.Property{
			"assessmentId": {
				Type:        "string",
				Description: "Stored assessment identifier, used as the document id",
				MinLength:   validation.Int(1),
			},
			"industry": {
				Type: "string",
				Enum: []string{"healthcare", "legal"},
			},
			"email":       {Type: "string", MinLength: validation.Int(3)},
			"company":     {Type: "string"},
			"title":       {Type: "string"},
			"submittedAt": {Type: "string"},
			"topPriorities": {
				Type:  "array",
				Items: &validation.Property{Type: "string"},
			},
			"totalScore":      {Type: "integer", Minimum: validation.Float(0)},
			"maxScore":        {Type: "integer", Minimum: validation.Float(1)},
			"percentageScore": {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"categoryScores":  {Type: "object"},
			"categoryTiers":   {Type: "object"},
			"capabilityScores": {
				Type: "object",
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"searchIndexed":    {Type: "boolean"},
			"searchMessage":    {Type: "string"},
			"searchIndex":      {Type: "string"},
			"searchDocumentId": {Type: "string"},
		},
	}
}
