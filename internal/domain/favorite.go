package domain

import (
	"context"
	"time"
)

// FavoriteMark 用户收藏关系，(userId, propertyId) 唯一
type FavoriteMark struct {
	UserID     string    `gorm:"primaryKey;size:64" json:"userId"`
	PropertyID string    `gorm:"primaryKey;size:64" json:"propertyId"`
	AddedAt    time.Time `gorm:"autoCreateTime:false;index" json:"addedAt"`
}

func (FavoriteMark) TableName() string { return "favorites" }

// FavoriteRepository 对应 users/{uid}/favorites 子集合
// Put 已存在时刷新 addedAt；Delete 不存在时不报错
type FavoriteRepository interface {
	Put(ctx context.Context, m FavoriteMark) error
	Delete(ctx context.Context, userID, propertyID string) error
	ListByUser(ctx context.Context, userID string) ([]FavoriteMark, error)
}
