package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// UsersClient implements mapi.UsersClient. User records live on the
// management surface; keyed lookup and password deprecation also exist on
// the API-key surface.
type UsersClient struct {
	api  *surface
	mgmt *surface
}

// NewUsersClient creates a new users client over both route surfaces.
func NewUsersClient(api, mgmt *surface) *UsersClient {
	return &UsersClient{api: api, mgmt: mgmt}
}

// List retrieves all users across every page of the management surface.
func (c *UsersClient) List(ctx context.Context, params *mapi.QueryParams) ([]mapi.User, error) {
	users, err := mapi.FetchAllPages[mapi.User](ctx, &pageLister[mapi.User]{surface: c.mgmt}, "users", c.mgmt.params(params), nil)
	if err != nil {
		return users, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

// ListPage retrieves a single page of users from the management surface.
func (c *UsersClient) ListPage(ctx context.Context, params *mapi.QueryParams) (*mapi.UserList, error) {
	page, err := listPage[mapi.User](ctx, c.mgmt, "users", c.mgmt.params(params))
	if err != nil {
		return nil, fmt.Errorf("listing users page: %w", err)
	}

	return page, nil
}

// Get retrieves one user. The management surface is preferred; with only an
// API key configured the lookup goes through the API-key route instead.
func (c *UsersClient) Get(ctx context.Context, userID string) (*mapi.User, error) {
	if userID == "" {
		return nil, constants.ErrUserIDRequired
	}

	s := c.mgmt
	if s.err != nil {
		s = c.api
	}

	resp, err := s.get(ctx, "users/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	user, err := mapi.DecodeObject[mapi.User](resp.Body, s.path("users/"+userID))
	if err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}

	return user, nil
}

// ListAdmins retrieves every user and keeps those whose roles include the
// administrator role. The role list only appears on the detail record, so
// each user is fetched individually; progress, when set, receives the
// running processed count and the total after each detail fetch.
func (c *UsersClient) ListAdmins(ctx context.Context, progress mapi.ProgressFunc) ([]mapi.User, error) {
	users, err := c.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	admins := make([]mapi.User, 0)

	for i, user := range users {
		detail, err := c.Get(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("getting user %s: %w", user.ID, err)
		}

		if detail.IsAdmin() {
			admins = append(admins, *detail)
		}

		if progress != nil {
			progress(i+1, len(users))
		}
	}

	return admins, nil
}

// AdminIDs returns just the identifiers of the administrator users.
func (c *UsersClient) AdminIDs(ctx context.Context, progress mapi.ProgressFunc) ([]string, error) {
	admins, err := c.ListAdmins(ctx, progress)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}

	return ids, nil
}

// DeprecatePassword marks a user's password as deprecated, forcing a reset
// on next login. The server reports success with 204 and no body.
func (c *UsersClient) DeprecatePassword(ctx context.Context, userID string) error {
	if userID == "" {
		return constants.ErrUserIDRequired
	}

	query := url.Values{}
	query.Set("userId", userID)

	_, err := c.api.post(ctx, "users/deprecatepassword", query, nil)
	if err != nil {
		return fmt.Errorf("deprecating password: %w", err)
	}

	return nil
}
