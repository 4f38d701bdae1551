package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property-listing/internal/core/cache"
	"property-listing/internal/core/config"
	"property-listing/internal/domain"
	"property-listing/internal/listing"
	apperrors "property-listing/pkg/errors"
)

const (
	catalogKeyActive = "catalog:properties:active"
	catalogKeyAll    = "catalog:properties:all"
)

// FavoriteCleaner 房源删除时清理收藏（可选）
type FavoriteCleaner interface {
	DeleteByProperty(ctx context.Context, propertyID string) error
}

type PropertyService struct {
	repo    domain.PropertyRepository
	cleaner FavoriteCleaner
	cache   *cache.Cache
	ttl     time.Duration
	cfg     config.Listing
	log     *zap.Logger
	now     func() time.Time
}

type PropertyOption func(*PropertyService)

func WithCatalogCache(c *cache.Cache, ttl time.Duration) PropertyOption {
	return func(s *PropertyService) { s.cache, s.ttl = c, ttl }
}

func WithListing(cfg config.Listing) PropertyOption {
	return func(s *PropertyService) { s.cfg = cfg }
}

func WithFavoriteCleaner(c FavoriteCleaner) PropertyOption {
	return func(s *PropertyService) { s.cleaner = c }
}

func WithPropertyLogger(l *zap.Logger) PropertyOption {
	return func(s *PropertyService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithPropertyClock(now func() time.Time) PropertyOption {
	return func(s *PropertyService) { s.now = now }
}

func NewPropertyService(repo domain.PropertyRepository, opts ...PropertyOption) *PropertyService {
	s := &PropertyService{
		repo: repo,
		ttl:  time.Minute,
		cfg:  config.Listing{ExcludeInactive: true, LookupLimit: 8},
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cfg.LookupLimit <= 0 {
		s.cfg.LookupLimit = 8
	}
	return s
}

// Create 服务端打时间戳，id 由存储层分配
func (s *PropertyService) Create(ctx context.Context, ownerID string, draft domain.PropertyDraft) (*domain.Property, error) {
	ownerID = domain.NormalizeID(ownerID)
	if ownerID == "" {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "owner required")
	}
	p := draft.Build()
	p.ID = ""
	p.UserID = ownerID
	p.Normalize()
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("property created", zap.String("id", p.ID), zap.String("owner", ownerID))
	return &p, nil
}

// Update 局部合并；id/owner/createdAt 不可改，updatedAt 每次刷新
func (s *PropertyService) Update(ctx context.Context, ownerID, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	cur, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cur, patch)
}

func (s *PropertyService) SetActive(ctx context.Context, ownerID, id string, active bool) (*domain.Property, error) {
	return s.Update(ctx, ownerID, id, domain.PropertyPatch{Active: &active})
}

// Deactivate 后台下架，不校验业主
func (s *PropertyService) Deactivate(ctx context.Context, id string) (*domain.Property, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	off := false
	return s.apply(ctx, cur, domain.PropertyPatch{Active: &off})
}

func (s *PropertyService) apply(ctx context.Context, cur *domain.Property, patch domain.PropertyPatch) (*domain.Property, error) {
	now := s.now().UTC()
	patch.UpdatedAt = &now

	merged := *cur
	patch.Apply(&merged)
	merged.Normalize()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cur.ID, patch); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &merged, nil
}

func (s *PropertyService) Delete(ctx context.Context, ownerID, id string) error {
	cur, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cur.ID); err != nil {
		return err
	}
	if s.cleaner != nil {
		if err := s.cleaner.DeleteByProperty(ctx, cur.ID); err != nil {
			s.log.Warn("cleanup favorites failed", zap.String("id", cur.ID), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	s.log.Info("property deleted", zap.String("id", cur.ID), zap.String("owner", cur.UserID))
	return nil
}

func (s *PropertyService) owned(ctx context.Context, ownerID, id string) (*domain.Property, error) {
	ownerID = domain.NormalizeID(ownerID)
	if ownerID == "" {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "owner required")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.UserID != ownerID {
		return nil, apperrors.New(apperrors.CodeForbidden, "not the owner of this property")
	}
	return cur, nil
}

func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "property id required")
	}
	return s.repo.Get(ctx, id)
}

// GetPropertiesByIDs 单条失败只记日志和计数，结果保持入参顺序（去重）
func (s *PropertyService) GetPropertiesByIDs(ctx context.Context, ids []string) ([]domain.Property, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = domain.NormalizeID(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	found := make([]*domain.Property, len(uniq))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupLimit)
	for i, id := range uniq {
		i, id := i, id
		g.Go(func() error {
			p, err := s.repo.Get(gctx, id)
			switch {
			case err == nil:
				found[i] = p
			case apperrors.IsCode(err, apperrors.CodeNotFound):
				lookupMisses.WithLabelValues("not_found").Inc()
				s.log.Debug("lookup miss", zap.String("id", id))
			default:
				lookupMisses.WithLabelValues("error").Inc()
				s.log.Warn("lookup failed", zap.String("id", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, "lookup properties")
	}

	out := make([]domain.Property, 0, len(uniq))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ListByOwner 业主视角，包含下架房源
func (s *PropertyService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Property, error) {
	ownerID = domain.NormalizeID(ownerID)
	if ownerID == "" {
		return nil, apperrors.New(apperrors.CodeNotAuthenticated, "owner required")
	}
	return s.repo.List(ctx, domain.PropertyQuery{OwnerID: ownerID})
}

// ListAll 后台视角
func (s *PropertyService) ListAll(ctx context.Context) ([]domain.Property, error) {
	return s.repo.List(ctx, domain.PropertyQuery{})
}

// Catalog 公共列表，走 redis 缓存；是否排除下架由 listing.excludeInactive 决定
func (s *PropertyService) Catalog(ctx context.Context) ([]domain.Property, error) {
	key := catalogKeyAll
	if s.cfg.ExcludeInactive {
		key = catalogKeyActive
	}
	got, err := cache.GetOrLoadJSON(s.cache, ctx, key, s.ttl, func(ctx context.Context) (*[]domain.Property, error) {
		ps, err := s.repo.List(ctx, domain.PropertyQuery{ActiveOnly: s.cfg.ExcludeInactive})
		if err != nil {
			return nil, err
		}
		return &ps, nil
	})
	if err != nil {
		return nil, err
	}
	if got == nil {
		return []domain.Property{}, nil
	}
	return *got, nil
}

type BrowseResult struct {
	Items   []domain.Property `json:"items"`
	Summary listing.Summary   `json:"summary"`
}

// Browse 目录 + 筛选；Summary 按整个目录统计（各类型数量）
func (s *PropertyService) Browse(ctx context.Context, spec listing.FilterSpec) (*BrowseResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	all, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &BrowseResult{Items: listing.Apply(all, spec), Summary: listing.Summarize(all)}, nil
}

func (s *PropertyService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogKeyActive, catalogKeyAll); err != nil {
		s.log.Warn("invalidate catalog failed", zap.Error(err))
	}
}
