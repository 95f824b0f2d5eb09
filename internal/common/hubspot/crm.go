// internal/common/hubspot/crm.go
// Package hubspot is a small client for the HubSpot CRM contacts API.
package hubspot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "aiq-assessment/internal/common/http"
)

const DefaultBaseURL = "https://api.hubapi.com"

const contactsPath = "/crm/v3/objects/contacts"

// Properties is a flat HubSpot property map. HubSpot accepts string values only.
type Properties map[string]string

type Contact struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

type CRMClient struct {
	baseURL string
	client  *httpclient.Client
}

func NewCRMClient(baseURL, accessToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.NewClient(timeout).WithHeader("Authorization", "Bearer "+accessToken),
	}
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
}

type searchResponse struct {
	Total   int       `json:"total"`
	Results []Contact `json:"results"`
}

// FindContactByEmail returns the contact with email, or nil when none exists.
func (c *CRMClient) FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: email}},
		}},
		Properties: []string{"email"},
		Limit:      1,
	}

	var resp searchResponse
	if err := c.client.DoJSON(ctx, http.MethodPost, c.baseURL+contactsPath+"/search", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// CreateContact creates a contact and returns its id.
func (c *CRMClient) CreateContact(ctx context.Context, props Properties) (string, error) {
	var created Contact
	body := map[string]interface{}{"properties": props}
	if err := c.client.DoJSON(ctx, http.MethodPost, c.baseURL+contactsPath, body, &created); err != nil {
		return "", fmt.Errorf("failed to create contact: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("failed to create contact: no id in response")
	}
	return created.ID, nil
}

// UpdateContact patches the given properties onto an existing contact.
func (c *CRMClient) UpdateContact(ctx context.Context, contactID string, props Properties) error {
	body := map[string]interface{}{"properties": props}
	url := fmt.Sprintf("%s%s/%s", c.baseURL, contactsPath, contactID)
	if err := c.client.DoJSON(ctx, http.MethodPatch, url, body, nil); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

// UpsertContact updates the contact matching the email property or creates a new one.
// It returns the contact id and whether a new contact was created.
func (c *CRMClient) UpsertContact(ctx context.Context, props Properties) (string, bool, error) {
	email := props["email"]
	if email == "" {
		return "", false, fmt.Errorf("contact email is required")
	}

	existing, err := c.FindContactByEmail(ctx, email)
	if err != nil {
		return "", false, err
	}

	if existing != nil {
		if err := c.UpdateContact(ctx, existing.ID, props); err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}

	id, err := c.CreateContact(ctx, props)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
