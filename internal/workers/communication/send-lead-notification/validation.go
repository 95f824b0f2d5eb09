// internal/workers/communication/send-lead-notification/validation.go
package sendleadnotification

import "aiq-assessment/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"assessmentId", "industry", "email", "percentageScore"},
		Properties: map[string]validation.Property{
			"assessmentId": {Type: "string", MinLength: validation.Int(1)},
			"industry":     {Type: "string", Enum: []string{"healthcare", "legal"}},
			"email":        {Type: "string", MinLength: validation.Int(3), MaxLength: validation.Int(254)},
			"name":         {Type: "string", MaxLength: validation.Int(200)},
			"title":        {Type: "string", MaxLength: validation.Int(200)},
			"company":      {Type: "string", MaxLength: validation.Int(200)},
			"submittedAt":  {Type: "string"},
			"topPriorities": {
				Type:  "array",
				Items: &validation.Property{Type: "string"},
			},
			"priorityNotes": {Type: "string", MaxLength: validation.Int(1000)},
			"totalScore":    {Type: "integer", Minimum: validation.Float(0)},
			"maxScore":      {Type: "integer", Minimum: validation.Float(1)},
			"percentageScore": {
				Type:    "integer",
				Minimum: validation.Float(0),
				Maximum: validation.Float(100),
			},
			"categoryScores": {Type: "object"},
			"categoryTiers":  {Type: "object"},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"notificationSent":   {Type: "boolean"},
			"notificationId":     {Type: "string", Description: "SES message id"},
			"leadEventPublished": {Type: "boolean"},
			"leadEventId":        {Type: "string", Description: "SNS message id"},
		},
	}
}
