package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"property-listing/internal/core/auth"
	"property-listing/internal/domain"
	"property-listing/internal/identity"
	apperrors "property-listing/pkg/errors"
	"property-listing/pkg/utils"
)

const minPasswordLen = 6

var validate = validator.New()

type UserService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger
}

var _ identity.Authenticator = (*UserService)(nil)

func NewUserService(users domain.UserRepository, jwt *auth.JWTer, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, jwt: jwt, log: log}
}

func checkCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", apperrors.New(apperrors.CodeInvalidArgument, "a valid email is required")
	}
	if len(password) < minPasswordLen {
		return "", apperrors.New(apperrors.CodeInvalidArgument, "password must be at least 6 characters")
	}
	return email, nil
}

// Register 邮箱唯一；昵称为空时取邮箱 @ 前缀
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*identity.Credentials, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	if exist, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if exist != nil {
		return nil, apperrors.New(apperrors.CodeConflict, "email already registered")
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "hash password")
	}
	u := &domain.User{ID: utils.NewID(), Email: email, Name: name, PasswordHash: hash, Role: domain.RoleUser}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("uid", u.ID))
	return s.credentials(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*identity.Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "email and password required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "invalid email or password")
	}
	return s.credentials(u)
}

func (s *UserService) credentials(u *domain.User) (*identity.Credentials, error) {
	token, err := s.jwt.IssueFor(u.ID, u.Role, u.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "issue token")
	}
	return &identity.Credentials{
		Token: token,
		User:  identity.CurrentUser{ID: u.ID, DisplayName: u.Name, Email: u.Email},
	}, nil
}

func (s *UserService) Me(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return u, nil
}

type ProfileUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=64"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

func (s *UserService) UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, err, "invalid profile")
	}
	u, err := s.Me(ctx, uid)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type UserPage struct {
	List  []domain.User `json:"list"`
	Total int64         `json:"total"`
}

func (s *UserService) List(ctx context.Context, q domain.UserQuery) (*UserPage, error) {
	list, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &UserPage{List: list, Total: total}, nil
}

// Ban 软删除；管理员不能封禁自己
func (s *UserService) Ban(ctx context.Context, operator, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "user id required")
	}
	if uid == operator {
		return apperrors.New(apperrors.CodeForbidden, "cannot ban yourself")
	}
	if err := s.users.SoftDelete(ctx, uid); err != nil {
		return err
	}
	s.log.Info("user banned", zap.String("uid", uid), zap.String("by", operator))
	return nil
}

// EnsureAdmin 启动时创建管理员账号，已存在则跳过
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	if u, err := s.users.FindByEmail(ctx, email); err != nil || u != nil {
		return u, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "hash password")
	}
	name, _, _ := strings.Cut(email, "@")
	u := &domain.User{ID: utils.NewID(), Email: email, Name: name, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("admin created", zap.String("uid", u.ID))
	return u, nil
}
