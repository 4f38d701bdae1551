package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property-listing/internal/domain"
	"property-listing/internal/listing"
	apperrors "property-listing/pkg/errors"
)

type DashboardStats struct {
	TotalProperties    int     `json:"totalProperties"`
	ActiveListings     int     `json:"activeListings"`
	FavoriteProperties int     `json:"favoriteProperties"`
	AveragePrice       float64 `json:"averagePrice"`
}

type DashboardService struct {
	props *PropertyService
	favs  *FavoriteService
	log   *zap.Logger
}

func NewDashboardService(props *PropertyService, favs *FavoriteService, log *zap.Logger) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardService{props: props, favs: favs, log: log}
}

// Stats 自己的房源和收藏并发加载；一边失败按 0 计
func (s *DashboardService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	userID = domain.NormalizeID(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "sign in required")
	}

	var (
		owned []domain.Property
		faved int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := s.props.ListByOwner(gctx, userID)
		if err != nil {
			s.log.Warn("dashboard owned listings", zap.String("uid", userID), zap.Error(err))
			return nil
		}
		owned = ps
		return nil
	})
	g.Go(func() error {
		n, err := s.favs.Count(gctx, userID)
		if err != nil {
			s.log.Warn("dashboard favorites", zap.String("uid", userID), zap.Error(err))
			return nil
		}
		faved = n
		return nil
	})
	_ = g.Wait()

	return &DashboardStats{
		TotalProperties:    len(owned),
		ActiveListings:     listing.CountActive(owned),
		FavoriteProperties: faved,
		AveragePrice:       listing.AveragePrice(owned),
	}, nil
}
