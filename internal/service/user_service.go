package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/auth"
	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/rbac"
)

const minPasswordLen = 8

type RegisterInput struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	School   string `json:"school" form:"school"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// UserInput carries admin edits; nil fields are left unchanged.
type UserInput struct {
	Name      *string `json:"name" form:"name"`
	Email     *string `json:"email" form:"email"`
	Password  *string `json:"password" form:"password"`
	Role      *string `json:"role" form:"role"`
	School    *string `json:"school" form:"school"`
	StartDate *string `json:"start_date" form:"start_date"`
	EndDate   *string `json:"end_date" form:"end_date"`
	Active    *bool   `json:"active" form:"active"`
}

// Session is returned by a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type UserService struct {
	users     UserStore
	jwtSecret string
	jwtTTL    time.Duration
	logger    *zap.Logger
}

func NewUserService(users UserStore, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret, jwtTTL: jwtTTL, logger: logger}
}

// Register creates an account. The very first account becomes an admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name, err := requireTitle("name", in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}

	n, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := rbac.RoleIntern
	if n == 0 {
		role = rbac.RoleAdmin
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		School:       strings.TrimSpace(in.School),
		Active:       true,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.IncrementEntityMutation("user", "create")
	s.logger.Info("User registered",
		zap.Int64("user_id", u.ID),
		zap.String("role", u.Role),
	)
	return u, nil
}

// Login checks credentials and issues a JWT.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInactiveUser
	}

	token, err := auth.GenerateJWT(u.ID, u.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", u.ID))
	return &Session{Token: token, ExpiresAt: time.Now().Add(s.jwtTTL), User: u}, nil
}

func (s *UserService) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	return u, storeErr(err)
}

func (s *UserService) List(ctx context.Context, actor model.Actor, f model.UserFilter) ([]model.User, error) {
	if !actor.Can(rbac.PermissionManageUsers) {
		return nil, ErrForbidden
	}
	users, err := s.users.List(ctx, f)
	return users, storeErr(err)
}

func (s *UserService) Get(ctx context.Context, actor model.Actor, id int64) (*model.User, error) {
	if actor.UserID != id && !actor.Can(rbac.PermissionManageUsers) {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, id)
	return u, storeErr(err)
}

// Create adds an account on behalf of an admin; role defaults to intern.
func (s *UserService) Create(ctx context.Context, actor model.Actor, in UserInput) (*model.User, error) {
	if !actor.Can(rbac.PermissionManageUsers) {
		return nil, ErrForbidden
	}
	if in.Password == nil || len(*in.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}
	if in.Name == nil || in.Email == nil {
		return nil, invalid("name and email are required")
	}

	u := &model.User{Role: rbac.RoleIntern, Active: true}
	if err := s.apply(u, in); err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("user", "create")
	s.logger.Info("User created",
		zap.Int64("user_id", created.ID),
		zap.Int64("actor_id", actor.UserID),
	)
	return created, nil
}

func (s *UserService) Update(ctx context.Context, actor model.Actor, id int64, in UserInput) (*model.User, error) {
	if !actor.Can(rbac.PermissionManageUsers) {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if id == actor.UserID && ((in.Role != nil && *in.Role != u.Role) || (in.Active != nil && !*in.Active)) {
		return nil, invalid("admins cannot demote or deactivate themselves")
	}
	if err := s.apply(u, in); err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("user", "update")
	s.logger.Info("User updated",
		zap.Int64("user_id", id),
		zap.Int64("actor_id", actor.UserID),
	)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.Can(rbac.PermissionManageUsers) {
		return ErrForbidden
	}
	if id == actor.UserID {
		return invalid("admins cannot delete themselves")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("user", "delete")
	s.logger.Info("User deleted",
		zap.Int64("user_id", id),
		zap.Int64("actor_id", actor.UserID),
	)
	return nil
}

func (s *UserService) apply(u *model.User, in UserInput) error {
	if in.Name != nil {
		name, err := requireTitle("name", *in.Name)
		if err != nil {
			return err
		}
		u.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		u.Email = email
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < minPasswordLen {
			return invalid("password must be at least %d characters", minPasswordLen)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		if !rbac.ValidRole(*in.Role) {
			return invalid("unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.School != nil {
		u.School = strings.TrimSpace(*in.School)
	}
	if in.StartDate != nil {
		d, err := ParseDate(*in.StartDate)
		if err != nil {
			return err
		}
		u.StartDate = d
	}
	if in.EndDate != nil {
		d, err := ParseDate(*in.EndDate)
		if err != nil {
			return err
		}
		u.EndDate = d
	}
	if u.StartDate != nil && u.EndDate != nil && u.EndDate.Before(*u.StartDate) {
		return invalid("end_date must not be before start_date")
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	return nil
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", invalid("invalid email %q", s)
	}
	return s, nil
}
