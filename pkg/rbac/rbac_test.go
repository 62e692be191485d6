package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleAdmin, PermissionManageUsers, true},
		{RoleAdmin, PermissionLogTime, true},
		{RoleIntern, PermissionLogTime, true},
		{RoleIntern, PermissionUseSmartFocus, true},
		{RoleIntern, PermissionManageUsers, false},
		{RoleIntern, PermissionReviewWork, false},
		{RoleIntern, PermissionReplayOutbox, false},
		{"guest", PermissionReadTask, false},
		{"", PermissionReadTask, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestCheckPermission(t *testing.T) {
	require.NoError(t, CheckPermission(1, RoleAdmin, PermissionViewReports))

	err := CheckPermission(7, RoleIntern, PermissionViewReports)
	var denied *PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, int64(7), denied.UserID)
	assert.Equal(t, PermissionViewReports, denied.Permission)
	assert.Equal(t, "insufficient permissions", err.Error())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleIntern))
	assert.False(t, ValidRole("user"))
}
