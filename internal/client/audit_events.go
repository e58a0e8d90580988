package client

import (
	"context"
	"fmt"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// AuditEventsClient implements mapi.AuditEventsClient over the API-key
// surface.
type AuditEventsClient struct {
	api *surface
}

// NewAuditEventsClient creates a new audit events client.
func NewAuditEventsClient(api *surface) *AuditEventsClient {
	return &AuditEventsClient{api: api}
}

// List retrieves audit events across every page. Filters are forwarded to
// the server as query parameters.
func (c *AuditEventsClient) List(ctx context.Context, params *mapi.QueryParams) ([]mapi.AuditEvent, error) {
	events, err := mapi.FetchAllPages[mapi.AuditEvent](ctx, &pageLister[mapi.AuditEvent]{surface: c.api}, "auditevents", c.api.params(params), nil)
	if err != nil {
		return events, fmt.Errorf("listing audit events: %w", err)
	}

	return events, nil
}

// ListPage retrieves a single page of audit events.
func (c *AuditEventsClient) ListPage(ctx context.Context, params *mapi.QueryParams) (*mapi.AuditEventList, error) {
	page, err := listPage[mapi.AuditEvent](ctx, c.api, "auditevents", c.api.params(params))
	if err != nil {
		return nil, fmt.Errorf("listing audit events page: %w", err)
	}

	return page, nil
}

// Get retrieves one audit event by ID.
func (c *AuditEventsClient) Get(ctx context.Context, eventID string) (*mapi.AuditEvent, error) {
	if eventID == "" {
		return nil, constants.ErrEventIDRequired
	}

	resp, err := c.api.get(ctx, "auditevents/"+eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting audit event: %w", err)
	}

	event, err := mapi.DecodeObject[mapi.AuditEvent](resp.Body, c.api.path("auditevents/"+eventID))
	if err != nil {
		return nil, fmt.Errorf("parsing audit event response: %w", err)
	}

	return event, nil
}
