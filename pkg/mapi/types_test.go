package mapi_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parla-ai/mapi-client/pkg/mapi"
)

func TestResource_JSONMarshaling(t *testing.T) {
	t.Parallel()

	resource := mapi.Resource{
		ID:        "64f1c0ffee00000000000001",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	// The server keys records by Mongo-style "_id".
	var keys map[string]json.RawMessage

	err = json.Unmarshal(data, &keys)
	require.NoError(t, err)
	assert.Contains(t, keys, "_id")

	var decoded mapi.Resource

	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, resource.ID, decoded.ID)
	assert.Equal(t, resource.CreatedAt.Unix(), decoded.CreatedAt.Unix())
	assert.Equal(t, resource.UpdatedAt.Unix(), decoded.UpdatedAt.Unix())
}

func TestUser_JSONDecoding(t *testing.T) {
	t.Parallel()

	jsonData := `{
		"_id": "64f1c0ffee00000000000001",
		"email": "ops@example.com",
		"name": "Ops Admin",
		"roles": ["admin", "editor"],
		"active": true
	}`

	var user mapi.User

	err := json.Unmarshal([]byte(jsonData), &user)
	require.NoError(t, err)

	assert.Equal(t, "64f1c0ffee00000000000001", user.ID)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, []string{"admin", "editor"}, user.Roles)
	assert.True(t, user.Active)
}

func TestUser_IsAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		roles    []string
		expected bool
	}{
		{
			name:     "admin role present",
			roles:    []string{"admin"},
			expected: true,
		},
		{
			name:     "admin among other roles",
			roles:    []string{"editor", "admin", "viewer"},
			expected: true,
		},
		{
			name:     "no admin role",
			roles:    []string{"editor", "viewer"},
			expected: false,
		},
		{
			name:     "no roles",
			roles:    nil,
			expected: false,
		},
		{
			name:     "case sensitive",
			roles:    []string{"Admin"},
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user := mapi.User{Roles: tt.roles}
			assert.Equal(t, tt.expected, user.IsAdmin())
		})
	}
}

func TestListResponse_JSONDecoding(t *testing.T) {
	t.Parallel()
	t.Run("with next cursor", func(t *testing.T) {
		t.Parallel()

		jsonData := `{
			"items": [
				{"_id": "a", "name": "Org A"},
				{"_id": "b", "name": "Org B"}
			],
			"nextCursor": "abc123",
			"total": 40
		}`

		var resp mapi.ListResponse[mapi.Organisation]

		err := json.Unmarshal([]byte(jsonData), &resp)
		require.NoError(t, err)

		assert.Len(t, resp.Items, 2)
		assert.Equal(t, "a", resp.Items[0].ID)
		assert.Equal(t, "Org A", resp.Items[0].Name)
		assert.Equal(t, 40, resp.Total)
		require.NotNil(t, resp.NextCursor)
		assert.Equal(t, "abc123", *resp.NextCursor)
	})

	t.Run("terminal page", func(t *testing.T) {
		t.Parallel()

		jsonData := `{"items": [{"_id": "c"}], "nextCursor": null}`

		var resp mapi.ListResponse[mapi.Organisation]

		err := json.Unmarshal([]byte(jsonData), &resp)
		require.NoError(t, err)

		assert.Len(t, resp.Items, 1)
		assert.Nil(t, resp.NextCursor)
	})
}

func TestAuditEvent_JSONDecoding(t *testing.T) {
	t.Parallel()

	jsonData := `{
		"_id": "evt-1",
		"type": "user.login",
		"timestamp": "2024-03-01T10:00:00Z",
		"user": "64f1c0ffee00000000000001",
		"organisation": "org-1",
		"ipAddress": "192.0.2.10",
		"payload": {"userAgent": "curl/8.0", "attempts": 1}
	}`

	var event mapi.AuditEvent

	err := json.Unmarshal([]byte(jsonData), &event)
	require.NoError(t, err)

	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, "user.login", event.Type)
	assert.Equal(t, "192.0.2.10", event.IPAddress)
	assert.Equal(t, "curl/8.0", event.Payload["userAgent"])
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), event.Timestamp)
}

func TestAPIKey_JSONDecoding(t *testing.T) {
	t.Parallel()

	jsonData := `{
		"_id": "key-1",
		"apiKey": "pk_live_0123456789",
		"role": "super",
		"organisation": "org-1",
		"validUntil": "2024-03-01T10:15:00Z"
	}`

	var key mapi.APIKey

	err := json.Unmarshal([]byte(jsonData), &key)
	require.NoError(t, err)

	assert.Equal(t, "pk_live_0123456789", key.Key)
	assert.Equal(t, "super", key.Role)
	require.NotNil(t, key.ValidUntil)
	assert.Equal(t, 15, key.ValidUntil.Minute())
}
