package mapi_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parla-ai/mapi-client/pkg/mapi"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *mapi.QueryParams
		expected url.Values
	}{
		{
			name:     "empty params",
			params:   mapi.NewQueryParams(),
			expected: url.Values{},
		},
		{
			name:   "with cursor",
			params: mapi.NewQueryParams().WithCursor("abc123"),
			expected: url.Values{
				"next": []string{"abc123"},
			},
		},
		{
			name:   "with offset and limit",
			params: mapi.NewQueryParams().WithOffset(50).WithLimit(25),
			expected: url.Values{
				"offset": []string{"50"},
				"limit":  []string{"25"},
			},
		},
		{
			name:   "with ordering",
			params: mapi.NewQueryParams().WithOrderBy("-createdAt"),
			expected: url.Values{
				"sort": []string{"-createdAt"},
			},
		},
		{
			name: "with filters",
			params: mapi.NewQueryParams().
				WithFilter("type", "user.login", "user.logout").
				WithFilter("organisation", "org-1"),
			expected: url.Values{
				"type":         []string{"user.login,user.logout"},
				"organisation": []string{"org-1"},
			},
		},
		{
			name:   "with extra parameter",
			params: mapi.NewQueryParams().WithExtra("userId", "64f1"),
			expected: url.Values{
				"userId": []string{"64f1"},
			},
		},
		{
			name: "with renamed pagination parameters",
			params: mapi.NewQueryParams().
				WithFieldNames(mapi.PageFields{NextParam: "cursor", LimitParam: "pageSize"}).
				WithCursor("abc").
				WithLimit(10),
			expected: url.Values{
				"cursor":   []string{"abc"},
				"pageSize": []string{"10"},
			},
		},
		{
			name: "with all options",
			params: mapi.NewQueryParams().
				WithCursor("abc").
				WithLimit(25).
				WithOrderBy("timestamp").
				WithFilter("type", "project.delete").
				WithExtra("verbose", "1"),
			expected: url.Values{
				"next":    []string{"abc"},
				"limit":   []string{"25"},
				"sort":    []string{"timestamp"},
				"type":    []string{"project.delete"},
				"verbose": []string{"1"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := tt.params.ToValues()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestQueryParams_Builders(t *testing.T) {
	t.Parallel()
	t.Run("chaining methods", func(t *testing.T) {
		t.Parallel()

		params := mapi.NewQueryParams().
			WithCursor("abc").
			WithLimit(100).
			WithOrderBy("-timestamp").
			WithFilter("type", "user.login").
			WithFilter("user", "u1", "u2")

		values := params.ToValues()

		assert.Equal(t, "abc", values.Get("next"))
		assert.Equal(t, "100", values.Get("limit"))
		assert.Equal(t, "-timestamp", values.Get("sort"))
		assert.Equal(t, "user.login", values.Get("type"))
		assert.Equal(t, "u1,u2", values.Get("user"))
	})

	t.Run("WithFilter appends", func(t *testing.T) {
		t.Parallel()

		params := mapi.NewQueryParams().
			WithFilter("type", "user.login").
			WithFilter("type", "user.logout", "user.delete")

		assert.Equal(t, []string{"user.login", "user.logout", "user.delete"}, params.Filters["type"])
	})

	t.Run("zero offset omitted", func(t *testing.T) {
		t.Parallel()

		params := mapi.NewQueryParams().WithOffset(0)

		assert.Empty(t, params.ToValues())
	})
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := mapi.NewQueryParams().
		WithCursor("page-1").
		WithFilter("type", "user.login").
		WithExtra("verbose", "1")

	clone := original.Clone()
	clone.WithCursor("page-2").WithFilter("type", "user.logout")
	clone.Extra["verbose"] = "0"

	assert.Equal(t, "page-1", original.Cursor)
	assert.Equal(t, []string{"user.login"}, original.Filters["type"])
	assert.Equal(t, "1", original.Extra["verbose"])

	assert.Equal(t, "page-2", clone.Cursor)
	assert.Equal(t, []string{"user.login", "user.logout"}, clone.Filters["type"])
}

func TestNewQueryParams(t *testing.T) {
	t.Parallel()

	params := mapi.NewQueryParams()

	assert.NotNil(t, params)
	assert.NotNil(t, params.Filters)
	assert.NotNil(t, params.Extra)
	assert.Empty(t, params.Cursor)
	assert.Equal(t, 0, params.Offset)
	assert.Equal(t, 0, params.Limit)
	assert.Equal(t, mapi.DefaultPageFields(), params.FieldNames())
}

func TestQueryParams_ToQueryString(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mapi.NewQueryParams().ToQueryString())

	params := mapi.NewQueryParams().WithCursor("abc").WithLimit(10)
	assert.Equal(t, "?limit=10&next=abc", params.ToQueryString())
}
