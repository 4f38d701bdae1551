// Package firestore 文档库实现：properties、users、users/{uid}/favorites
package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "property-listing/pkg/errors"
)

const (
	colProperties = "properties"
	colUsers      = "users"
	colFavorites  = "favorites"
)

type Store struct {
	Client *firestore.Client
}

// Open credsFile 为空时走默认凭证（或 FIRESTORE_EMULATOR_HOST）
func Open(ctx context.Context, project, credsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}
	c, err := firestore.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{Client: c}, nil
}

func (s *Store) Close() {
	if s == nil || s.Client == nil {
		return
	}
	_ = s.Client.Close()
}

func (s *Store) Properties() *PropertyRepo { return &PropertyRepo{c: s.Client} }
func (s *Store) Favorites() *FavoriteRepo  { return &FavoriteRepo{c: s.Client} }
func (s *Store) Users() *UserRepo          { return &UserRepo{c: s.Client} }

// mapErr grpc 状态码 → 业务码
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if typed := apperrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, what)
	}
	switch status.Code(err) {
	case codes.NotFound:
		return apperrors.Wrap(apperrors.CodeNotFound, err, what+" not found")
	case codes.AlreadyExists:
		return apperrors.Wrap(apperrors.CodeConflict, err, what+" already exists")
	case codes.PermissionDenied:
		return apperrors.Wrap(apperrors.CodeForbidden, err, what)
	case codes.Unauthenticated:
		return apperrors.Wrap(apperrors.CodeNotAuthenticated, err, what)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, what)
	}
	return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, what)
}
