package rbac

// 权限常量
const (
	// 管理员权限
	PermissionManageUsers    = "user:manage"
	PermissionManageProjects = "project:manage"
	PermissionManageTasks    = "task:manage"
	PermissionReviewWork     = "deliverable:review"
	PermissionViewReports    = "report:view"
	PermissionReplayOutbox   = "outbox:replay"
	PermissionViewActivity   = "activity:view"

	// 普通权限
	PermissionReadProject   = "project:read"
	PermissionReadTask      = "task:read"
	PermissionUpdateTask    = "task:update"
	PermissionLogTime       = "timelog:write"
	PermissionSubmitWork    = "deliverable:submit"
	PermissionWriteNotes    = "note:write"
	PermissionWriteList     = "list:write"
	PermissionUseSmartFocus = "smart_focus:use"
)

// 角色常量
const (
	RoleIntern = "intern"
	RoleAdmin  = "admin"
)

var internPermissions = []string{
	PermissionReadProject,
	PermissionReadTask,
	PermissionUpdateTask,
	PermissionLogTime,
	PermissionSubmitWork,
	PermissionWriteNotes,
	PermissionWriteList,
	PermissionUseSmartFocus,
}

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleIntern: internPermissions,
	RoleAdmin: append([]string{
		PermissionManageUsers,
		PermissionManageProjects,
		PermissionManageTasks,
		PermissionReviewWork,
		PermissionViewReports,
		PermissionReplayOutbox,
		PermissionViewActivity,
	}, internPermissions...),
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查用户是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(userID int64, role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     int64
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
