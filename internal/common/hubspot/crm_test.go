package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "aiq-assessment/internal/common/http"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type fakeHubSpot struct {
	mu         sync.Mutex
	existingID string
	status     int
	calls      []recordedCall
}

func (f *fakeHubSpot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})

	if r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/crm/v3/objects/contacts/search":
		if f.existingID == "" {
			_, _ = w.Write([]byte(`{"total":0,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total":1,"results":[{"id":"` + f.existingID + `","properties":{"email":"jane@example.com"}}]}`))
	case r.Method == http.MethodPost && r.URL.Path == "/crm/v3/objects/contacts":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"new-42","properties":{}}`))
	case r.Method == http.MethodPatch:
		_, _ = w.Write([]byte(`{"id":"` + f.existingID + `"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeHubSpot) *CRMClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewCRMClient(srv.URL+"/", "test-token", 5*time.Second)
}

// ==========================
// Upsert
// ==========================

func TestUpsertContact_CreatesWhenMissing(t *testing.T) {
	fake := &fakeHubSpot{}
	client := newTestClient(t, fake)

	id, created, err := client.UpsertContact(context.Background(), Properties{
		"email":        "jane@example.com",
		"aiq_industry": "legal",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-42", id)
	assert.True(t, created)

	require.Len(t, fake.calls, 2)
	search := fake.calls[0]
	groups := search.Body["filterGroups"].([]interface{})
	filters := groups[0].(map[string]interface{})["filters"].([]interface{})
	assert.Equal(t, "jane@example.com", filters[0].(map[string]interface{})["value"])

	create := fake.calls[1]
	props := create.Body["properties"].(map[string]interface{})
	assert.Equal(t, "legal", props["aiq_industry"])
}

func TestUpsertContact_UpdatesExisting(t *testing.T) {
	fake := &fakeHubSpot{existingID: "c-7"}
	client := newTestClient(t, fake)

	id, created, err := client.UpsertContact(context.Background(), Properties{"email": "jane@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "c-7", id)
	assert.False(t, created)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, http.MethodPatch, fake.calls[1].Method)
	assert.Equal(t, "/crm/v3/objects/contacts/c-7", fake.calls[1].Path)
}

func TestUpsertContact_RequiresEmail(t *testing.T) {
	client := newTestClient(t, &fakeHubSpot{})
	_, _, err := client.UpsertContact(context.Background(), Properties{"company": "Acme"})
	assert.Error(t, err)
}

func TestUpsertContact_StatusError(t *testing.T) {
	fake := &fakeHubSpot{status: http.StatusServiceUnavailable}
	client := newTestClient(t, fake)

	_, _, err := client.UpsertContact(context.Background(), Properties{"email": "jane@example.com"})
	require.Error(t, err)

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, statusErr.Temporary())
}
