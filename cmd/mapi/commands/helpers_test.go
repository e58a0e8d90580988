package commands

import (
	"context"
	"testing"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		expected string
		wantErr  bool
	}{
		{
			name:     "bare domain gets https",
			endpoint: "api.parla.example",
			expected: "https://api.parla.example",
		},
		{
			name:     "path is stripped",
			endpoint: "https://api.parla.example/new/management",
			expected: "https://api.parla.example",
		},
		{
			name:     "http is preserved",
			endpoint: "http://localhost:8080",
			expected: "http://localhost:8080",
		},
		{
			name:     "missing host fails",
			endpoint: "https://",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := normalizeEndpoint(tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, normalized)
		})
	}
}

func TestExtractDomainFromEndpoint(t *testing.T) {
	assert.Equal(t, "api.parla.example", extractDomainFromEndpoint("https://api.parla.example"))
	assert.Equal(t, "api.parla.example", extractDomainFromEndpoint("https://api.parla.example:8443/v2.0"))
	assert.Equal(t, "localhost", extractDomainFromEndpoint("http://localhost:8080"))
	assert.Equal(t, "api.parla.example", extractDomainFromEndpoint("api.parla.example/path"))
}

func TestFetchListPagesSinglePage(t *testing.T) {
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		return &mapi.ListResponse[mapi.Project]{
			Items: []mapi.Project{{Name: "Support Bot"}},
		}, nil
	}

	items, truncated, err := fetchListPages(context.Background(), listPage, nil, false, 10, 1000)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, truncated)
}

func TestFetchListPagesReportsMorePages(t *testing.T) {
	cursor := "opaque-cursor"
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		return &mapi.ListResponse[mapi.Project]{
			Items:      []mapi.Project{{Name: "Support Bot"}},
			NextCursor: &cursor,
		}, nil
	}

	items, truncated, err := fetchListPages(context.Background(), listPage, nil, false, 10, 1000)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.True(t, truncated)
}

func TestFetchListPagesAllPages(t *testing.T) {
	cursor := "page-two"
	calls := 0
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		calls++
		if calls == 1 {
			return &mapi.ListResponse[mapi.Project]{
				Items:      []mapi.Project{{Name: "First"}, {Name: "Second"}},
				NextCursor: &cursor,
			}, nil
		}

		return &mapi.ListResponse[mapi.Project]{
			Items: []mapi.Project{{Name: "Third"}},
		}, nil
	}

	items, truncated, err := fetchListPages(context.Background(), listPage, nil, true, 25, 1000)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.False(t, truncated)
	assert.Equal(t, 2, calls)
}

func TestFetchListPagesPartialOnPageBound(t *testing.T) {
	cursor := "never-ends"
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		return &mapi.ListResponse[mapi.Project]{
			Items:      []mapi.Project{{Name: "Looping"}},
			NextCursor: &cursor,
		}, nil
	}

	// The page bound turns an endless listing into a partial result.
	items, truncated, err := fetchListPages(context.Background(), listPage, nil, true, 25, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.True(t, truncated)
}

func TestFetchListPagesRejectsInvalidBounds(t *testing.T) {
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		t.Fatal("listPage should not be called")

		return nil, nil
	}

	_, _, err := fetchListPages(context.Background(), listPage, nil, false, 0, 1000)
	require.ErrorIs(t, err, constants.ErrInvalidPageSize)

	_, _, err = fetchListPages(context.Background(), listPage, nil, true, 25, 0)
	require.ErrorIs(t, err, constants.ErrInvalidMaxPages)
}

func TestFetchListPagesPropagatesErrors(t *testing.T) {
	listPage := func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[mapi.Project], error) {
		return nil, assert.AnError
	}

	items, truncated, err := fetchListPages(context.Background(), listPage, nil, true, 25, 1000)
	require.Error(t, err)
	assert.Nil(t, items)
	assert.False(t, truncated)
}

func TestConfirmActionForce(t *testing.T) {
	assert.True(t, confirmAction(true, "Really?"))
}
