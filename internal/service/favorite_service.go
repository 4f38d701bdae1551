package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

// FavoriteService 服务端收藏：标记存储 + 房源解析
type FavoriteService struct {
	marks domain.FavoriteRepository
	props *PropertyService
	log   *zap.Logger
	now   func() time.Time
}

func NewFavoriteService(marks domain.FavoriteRepository, props *PropertyService, log *zap.Logger) *FavoriteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FavoriteService{marks: marks, props: props, log: log, now: time.Now}
}

func (s *FavoriteService) args(userID, propertyID string) (string, string, error) {
	userID, propertyID = domain.NormalizeID(userID), domain.NormalizeID(propertyID)
	if userID == "" {
		return "", "", apperrors.New(apperrors.CodeNotAuthenticated, "sign in required")
	}
	if propertyID == "" {
		return "", "", apperrors.New(apperrors.CodeInvalidArgument, "property id required")
	}
	return userID, propertyID, nil
}

// Add 房源必须存在；重复收藏刷新 addedAt
func (s *FavoriteService) Add(ctx context.Context, userID, propertyID string) (*domain.FavoriteMark, error) {
	userID, propertyID, err := s.args(userID, propertyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.props.Get(ctx, propertyID); err != nil {
		return nil, err
	}
	m := domain.FavoriteMark{UserID: userID, PropertyID: propertyID, AddedAt: s.now().UTC()}
	if err := s.marks.Put(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Remove 幂等
func (s *FavoriteService) Remove(ctx context.Context, userID, propertyID string) error {
	userID, propertyID, err := s.args(userID, propertyID)
	if err != nil {
		return err
	}
	return s.marks.Delete(ctx, userID, propertyID)
}

func (s *FavoriteService) Marks(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	userID = domain.NormalizeID(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "sign in required")
	}
	return s.marks.ListByUser(ctx, userID)
}

func (s *FavoriteService) IDs(ctx context.Context, userID string) ([]string, error) {
	ms, err := s.Marks(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.PropertyID)
	}
	return ids, nil
}

// Properties 已删除的房源直接跳过
func (s *FavoriteService) Properties(ctx context.Context, userID string) ([]domain.Property, error) {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.props.GetPropertiesByIDs(ctx, ids)
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, propertyID string) (bool, error) {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return false, err
	}
	propertyID = domain.NormalizeID(propertyID)
	for _, id := range ids {
		if id == propertyID {
			return true, nil
		}
	}
	return false, nil
}

// Count 按收藏记录计数，房源是否还在不影响
func (s *FavoriteService) Count(ctx context.Context, userID string) (int, error) {
	ms, err := s.Marks(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ms), nil
}
