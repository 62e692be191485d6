package service

import (
	"time"

	"interntrack/internal/model"
	"interntrack/pkg/rbac"
)

var (
	admin  = model.Actor{UserID: 1, Role: rbac.RoleAdmin}
	intern = model.Actor{UserID: 2, Role: rbac.RoleIntern}
	other  = model.Actor{UserID: 3, Role: rbac.RoleIntern}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
