package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/parla-ai/mapi-client/internal/client"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

func TestOrganisationsClient_List(t *testing.T) {
	t.Parallel()

	organisations := make([]mapi.Organisation, 60)
	for i := range organisations {
		organisations[i] = mapi.Organisation{
			Resource: mapi.Resource{ID: "org-" + strconv.Itoa(i+1)},
			Name:     "Organisation " + strconv.Itoa(i+1),
		}
	}

	// The management surface pages organisations at 25 per request.
	RunListTest(t, "/new/management/v2.0/organisations", organisations, 25,
		func(organisation mapi.Organisation) string { return organisation.ID },
		func(client *Client) ([]mapi.Organisation, error) {
			return client.Organisations().List(context.Background(), nil)
		})
}

func TestOrganisationsClient_List_WithoutBasicCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	client := NewAPIKeyTestClient(t, server.URL)

	organisations, err := client.Organisations().List(context.Background(), nil)
	require.ErrorIs(t, err, mapi.ErrBasicCredentialsRequired)
	assert.Nil(t, organisations)
}

func TestOrganisationsClient_ListPage_ForwardsCursor(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/new/management/v2.0/organisations", request.URL.Path)
		assert.Equal(t, "c1", request.URL.Query().Get("next"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"items": [{"_id": "org-26", "name": "Organisation 26"}], "nextCursor": null}`))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	page, err := client.Organisations().ListPage(context.Background(), mapi.NewQueryParams().WithCursor("c1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "org-26", page.Items[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestOrganisationsClient_CreateAPIKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/new/management/v2.0/organisations/org-1/apikeys", request.URL.Path)
		assert.Equal(t, http.MethodPost, request.Method)

		username, password, ok := request.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, TestUsername, username)
		assert.Equal(t, TestPassword, password)

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"_id": "key-1", "apiKey": "mk-super-key", "role": "super", "organisation": "org-1"}`))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	key, err := client.Organisations().CreateAPIKey(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "mk-super-key", key.Key)
	assert.Equal(t, "super", key.Role)
	assert.Equal(t, "org-1", key.Organisation)
}

func TestOrganisationsClient_CreateAPIKey_MissingID(t *testing.T) {
	t.Parallel()

	client := NewTestClient(t, "https://api.example.com")

	key, err := client.Organisations().CreateAPIKey(context.Background(), "")
	require.ErrorIs(t, err, constants.ErrOrganisationIDRequired)
	assert.Nil(t, key)
}

func TestOrganisationsClient_CreateAPIKey_MalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"apiKey": `))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	key, err := client.Organisations().CreateAPIKey(context.Background(), "org-1")
	require.Error(t, err)
	assert.True(t, mapi.IsMalformedResponse(err))
	assert.Nil(t, key)
}
