package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleCounsellor.Valid())
	assert.False(t, Role("student").Valid())
	assert.False(t, Role("").Valid())
}

func TestAccountStatusValid(t *testing.T) {
	for _, status := range []AccountStatus{StatusPending, StatusApproved, StatusBlocked} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, AccountStatus("suspended").Valid())
	assert.False(t, AccountStatus("").Valid())
}

func TestRequestStatusValid(t *testing.T) {
	for _, status := range []RequestStatus{RequestNew, RequestScheduled, RequestInProgress, RequestArchived} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, RequestStatus("resolved").Valid())
	assert.False(t, RequestStatus("").Valid())
}

func TestAccountJSONHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(Account{
		ID:           1,
		Email:        "asha@example.com",
		PasswordHash: "$2a$10$secret",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}
