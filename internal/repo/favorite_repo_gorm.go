package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"property-listing/internal/domain"
)

type FavoriteRepo struct{ db *gorm.DB }

var _ domain.FavoriteRepository = (*FavoriteRepo)(nil)

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Put 重复收藏只刷新 added_at
func (r *FavoriteRepo) Put(ctx context.Context, m domain.FavoriteMark) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"added_at"}),
	}).Create(&m).Error
	return mapErr(err, "favorite")
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, propertyID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&domain.FavoriteMark{}).Error
	return mapErr(err, "favorite")
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	var out []domain.FavoriteMark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at desc").Order("property_id").
		Find(&out).Error
	if err != nil {
		return nil, mapErr(err, "list favorites")
	}
	return out, nil
}

// DeleteByProperty 房源删除后清理所有用户的收藏
func (r *FavoriteRepo) DeleteByProperty(ctx context.Context, propertyID string) error {
	err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).Delete(&domain.FavoriteMark{}).Error
	return mapErr(err, "favorite")
}

