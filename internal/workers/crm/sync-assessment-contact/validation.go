// internal/workers/crm/sync-assessment-contact/validation.go
package syncassessmentcontact

import "aiq-assessment/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"assessmentId", "industry", "email", "totalScore", "maxScore", "percentageScore"},
		Properties: map[string]validation.Property{
			"assessmentId": {
				Type:        "string",
				Description: "Stored assessment identifier",
				MinLength:   validation.Int(1),
			},
			"industry": {
				Type:        "string",
				Description: "Assessment industry",
				Enum:        []string{"healthcare", "legal"},
			},
			"email": {
				Type:        "string",
				Description: "Contact email, used as the CRM upsert key",
				MinLength:   validation.Int(3),
				MaxLength:   validation.Int(254),
			},
			"name":             {Type: "string", MaxLength: validation.Int(200)},
			"title":            {Type: "string", MaxLength: validation.Int(200)},
			"company":          {Type: "string", MaxLength: validation.Int(200)},
			"consentGiven":     {Type: "boolean"},
			"consentTimestamp": {Type: "string"},
			"submittedAt":      {Type: "string"},
			"utmSource":        {Type: "string"},
			"utmMedium":        {Type: "string"},
			"utmCampaign":      {Type: "string"},
			"topPriorities": {
				Type:  "array",
				Items: &validation.Property{Type: "string"},
			},
			"priorityNotes": {Type: "string", MaxLength: validation.Int(1000)},
			"totalScore": {
				Type:    "integer",
				Minimum: validation.Float(0),
			},
			"maxScore": {
				Type:    "integer",
				Minimum: validation.Float(1),
			},
			"percentageScore": {
				Type:    "integer",
				Minimum: validation.Float(0),
				Maximum: validation.Float(100),
			},
			"categoryScores": {
				Type:        "object",
				Description: "Weighted score per category name",
			},
			"capabilityScores": {
				Type:        "object",
				Description: "Raw 1-5 score per capability id",
			},
		},
		// Process instances carry the whole lead payload.
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"crmSynced":         {Type: "boolean", Description: "Whether the contact was synced"},
			"crmMessage":        {Type: "string"},
			"crmContactId":      {Type: "string", Description: "HubSpot contact id"},
			"crmContactCreated": {Type: "boolean", Description: "Whether a new contact was created"},
		},
	}
}
