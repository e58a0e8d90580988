package client

import (
	"context"
	"fmt"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// ProjectsClient implements mapi.ProjectsClient over the API-key surface.
type ProjectsClient struct {
	api *surface
}

// NewProjectsClient creates a new projects client.
func NewProjectsClient(api *surface) *ProjectsClient {
	return &ProjectsClient{api: api}
}

// List retrieves all projects across every page.
func (c *ProjectsClient) List(ctx context.Context, params *mapi.QueryParams) ([]mapi.Project, error) {
	projects, err := mapi.FetchAllPages[mapi.Project](ctx, &pageLister[mapi.Project]{surface: c.api}, "projects", c.api.params(params), nil)
	if err != nil {
		return projects, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// ListPage retrieves a single page of projects.
func (c *ProjectsClient) ListPage(ctx context.Context, params *mapi.QueryParams) (*mapi.ProjectList, error) {
	page, err := listPage[mapi.Project](ctx, c.api, "projects", c.api.params(params))
	if err != nil {
		return nil, fmt.Errorf("listing projects page: %w", err)
	}

	return page, nil
}

// Get retrieves one project by ID.
func (c *ProjectsClient) Get(ctx context.Context, projectID string) (*mapi.Project, error) {
	if projectID == "" {
		return nil, constants.ErrProjectIDRequired
	}

	resp, err := c.api.get(ctx, "projects/"+projectID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}

	project, err := mapi.DecodeObject[mapi.Project](resp.Body, c.api.path("projects/"+projectID))
	if err != nil {
		return nil, fmt.Errorf("parsing project response: %w", err)
	}

	return project, nil
}

// Delete removes a project. The server reports success with 204 and no
// body.
func (c *ProjectsClient) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return constants.ErrProjectIDRequired
	}

	_, err := c.api.delete(ctx, "projects/"+projectID)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return nil
}
