package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

type UserRepo struct{ db *gorm.DB }

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return mapErr(r.db.WithContext(ctx).Create(u).Error, "user")
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q.WithDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, mapErr(err, "count users")
	}
	var users []domain.User
	if err := tx.Offset(q.Offset).Limit(q.Limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, mapErr(err, "list users")
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return mapErr(r.db.WithContext(ctx).Save(u).Error, "user")
}

// SoftDelete 封禁；不存在（或已封禁）返回 NotFound
func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return mapErr(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}
