package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/parla-ai/mapi-client/internal/client"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

func TestAuditEventsClient_List(t *testing.T) {
	t.Parallel()

	events := make([]mapi.AuditEvent, 7)
	for i := range events {
		events[i] = mapi.AuditEvent{
			ID:        "event-" + strconv.Itoa(i+1),
			Type:      "user.login",
			Timestamp: time.Date(2024, 3, 1, 12, i, 0, 0, time.UTC),
		}
	}

	RunListTest(t, "/v2.0/auditevents", events, 3,
		func(event mapi.AuditEvent) string { return event.ID },
		func(client *Client) ([]mapi.AuditEvent, error) {
			return client.AuditEvents().List(context.Background(), nil)
		})
}

func TestAuditEventsClient_List_ForwardsFilters(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v2.0/auditevents", request.URL.Path)
		assert.Equal(t, TestAPIKey, request.Header.Get("X-API-Key"))
		assert.Equal(t, "user.login", request.URL.Query().Get("type"))
		assert.Equal(t, "org-1", request.URL.Query().Get("organisation"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"items": [{"_id": "event-1", "type": "user.login"}], "nextCursor": null}`))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	params := mapi.NewQueryParams().
		WithFilter("type", "user.login").
		WithFilter("organisation", "org-1")

	events, err := client.AuditEvents().List(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
}

func TestAuditEventsClient_List_WithoutAPIKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	client := NewManagementTestClient(t, server.URL)

	events, err := client.AuditEvents().List(context.Background(), nil)
	require.ErrorIs(t, err, mapi.ErrAPIKeyRequired)
	assert.Nil(t, events)
}

func TestAuditEventsClient_List_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
	server.Close()

	client := NewTestClient(t, server.URL)

	events, err := client.AuditEvents().List(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, mapi.IsNetworkError(err))
	assert.Nil(t, events)
}

func TestAuditEventsClient_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v2.0/auditevents/event-1", request.URL.Path)
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, TestAPIKey, request.Header.Get("X-API-Key"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{
			"_id": "event-1",
			"type": "project.deleted",
			"timestamp": "2024-03-01T12:00:00Z",
			"user": "one@example.com",
			"ipAddress": "198.51.100.7",
			"payload": {"projectId": "project-9"}
		}`))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	event, err := client.AuditEvents().Get(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, "event-1", event.ID)
	assert.Equal(t, "project.deleted", event.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), event.Timestamp)
	assert.Equal(t, "one@example.com", event.User)
	assert.Equal(t, "project-9", event.Payload["projectId"])
}

func TestAuditEventsClient_Get_MissingID(t *testing.T) {
	t.Parallel()

	client := NewTestClient(t, "https://api.example.com")

	event, err := client.AuditEvents().Get(context.Background(), "")
	require.ErrorIs(t, err, constants.ErrEventIDRequired)
	assert.Nil(t, event)
}
