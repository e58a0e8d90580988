package client

import (
	"context"
	"fmt"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// OrganisationsClient implements mapi.OrganisationsClient over the
// management surface.
type OrganisationsClient struct {
	mgmt *surface
}

// NewOrganisationsClient creates a new organisations client.
func NewOrganisationsClient(mgmt *surface) *OrganisationsClient {
	return &OrganisationsClient{mgmt: mgmt}
}

// List retrieves all organisations across every page. The server pages at
// 25 organisations unless the limit parameter says otherwise.
func (c *OrganisationsClient) List(ctx context.Context, params *mapi.QueryParams) ([]mapi.Organisation, error) {
	orgs, err := mapi.FetchAllPages[mapi.Organisation](ctx, &pageLister[mapi.Organisation]{surface: c.mgmt}, "organisations", c.mgmt.params(params), nil)
	if err != nil {
		return orgs, fmt.Errorf("listing organisations: %w", err)
	}

	return orgs, nil
}

// ListPage retrieves a single page of organisations.
func (c *OrganisationsClient) ListPage(ctx context.Context, params *mapi.QueryParams) (*mapi.OrganisationList, error) {
	page, err := listPage[mapi.Organisation](ctx, c.mgmt, "organisations", c.mgmt.params(params))
	if err != nil {
		return nil, fmt.Errorf("listing organisations page: %w", err)
	}

	return page, nil
}

// CreateAPIKey mints a temporary super API key for an organisation. The
// minted key carries admin permissions and expires fifteen minutes after
// creation; the server must have the super-key feature enabled.
func (c *OrganisationsClient) CreateAPIKey(ctx context.Context, organisationID string) (*mapi.APIKey, error) {
	if organisationID == "" {
		return nil, constants.ErrOrganisationIDRequired
	}

	endpoint := "organisations/" + organisationID + "/apikeys"

	resp, err := c.mgmt.post(ctx, endpoint, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating API key: %w", err)
	}

	key, err := mapi.DecodeObject[mapi.APIKey](resp.Body, c.mgmt.path(endpoint))
	if err != nil {
		return nil, fmt.Errorf("parsing API key response: %w", err)
	}

	return key, nil
}
