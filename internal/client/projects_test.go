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

func TestProjectsClient_List(t *testing.T) {
	t.Parallel()

	projects := make([]mapi.Project, 5)
	for i := range projects {
		projects[i] = mapi.Project{
			Resource:     mapi.Resource{ID: "project-" + strconv.Itoa(i+1)},
			Name:         "Project " + strconv.Itoa(i+1),
			Organisation: "org-1",
		}
	}

	RunListTest(t, "/v2.0/projects", projects, 2,
		func(project mapi.Project) string { return project.ID },
		func(client *Client) ([]mapi.Project, error) {
			return client.Projects().List(context.Background(), nil)
		})
}

func TestProjectsClient_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v2.0/projects/project-1", request.URL.Path)
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, TestAPIKey, request.Header.Get("X-API-Key"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"_id": "project-1", "name": "Support Bot", "organisation": "org-1"}`))
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	project, err := client.Projects().Get(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, "project-1", project.ID)
	assert.Equal(t, "Support Bot", project.Name)
	assert.Equal(t, "org-1", project.Organisation)
}

func TestProjectsClient_Get_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(NewErrorHandler(http.StatusNotFound, "Project not found"))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	project, err := client.Projects().Get(context.Background(), "project-404")
	require.Error(t, err)
	assert.True(t, mapi.IsNotFound(err))
	assert.Nil(t, project)

	var requestErr *mapi.RequestError

	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusNotFound, requestErr.StatusCode)
	assert.Equal(t, "Project not found", requestErr.Message)
}

func TestProjectsClient_Get_MissingID(t *testing.T) {
	t.Parallel()

	client := NewTestClient(t, "https://api.example.com")

	project, err := client.Projects().Get(context.Background(), "")
	require.ErrorIs(t, err, constants.ErrProjectIDRequired)
	assert.Nil(t, project)
}

func TestProjectsClient_Delete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v2.0/projects/project-1", request.URL.Path)
		assert.Equal(t, http.MethodDelete, request.Method)
		assert.Equal(t, TestAPIKey, request.Header.Get("X-API-Key"))

		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	err := client.Projects().Delete(context.Background(), "project-1")
	require.NoError(t, err)
}

func TestProjectsClient_Delete_MissingID(t *testing.T) {
	t.Parallel()

	client := NewTestClient(t, "https://api.example.com")

	err := client.Projects().Delete(context.Background(), "")
	require.ErrorIs(t, err, constants.ErrProjectIDRequired)
}
