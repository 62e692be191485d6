package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "school",
	"start_date", "end_date", "active", "created_at", "updated_at",
}

type UserRepository struct {
	table[model.User]
}

func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{newTable[model.User](pool, logger, "users", userColumns...)}
}

// Create inserts a new user and returns the stored row.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	b := InsertInto(r.name).
		Set("name", u.Name).
		Set("email", strings.ToLower(u.Email)).
		Set("password_hash", u.PasswordHash).
		Set("role", u.Role).
		Set("school", u.School).
		Set("start_date", u.StartDate).
		Set("end_date", u.EndDate).
		Set("active", u.Active)
	return r.insert(ctx, b)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, id)
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query, args := r.selectAll().Where("email", "=", strings.ToLower(email)).Build()
	return r.one(ctx, "get", query, args)
}

func (r *UserRepository) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.Role != "", "role", "=", f.Role).
		WhereIf(f.Active != nil, "active", "=", f.Active)
	if f.Query != "" {
		b.WhereAny([]string{"name", "email", "school"}, "ILIKE", likePattern(f.Query))
	}
	return r.find(ctx, page(b.OrderBy("name", "id"), p.Limit, p.Offset))
}

// Update writes every mutable column of u.
func (r *UserRepository) Update(ctx context.Context, u *model.User) (*model.User, error) {
	b := Update(r.name).
		Set("name", u.Name).
		Set("email", strings.ToLower(u.Email)).
		Set("password_hash", u.PasswordHash).
		Set("role", u.Role).
		Set("school", u.School).
		Set("start_date", u.StartDate).
		Set("end_date", u.EndDate).
		Set("active", u.Active).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, u.ID, b)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, r.selectAll())
}
