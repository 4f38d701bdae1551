package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"property-listing/internal/domain"
)

type favoriteDoc struct {
	PropertyID string    `firestore:"propertyId"`
	AddedAt    time.Time `firestore:"addedAt"`
}

type FavoriteRepo struct{ c *firestore.Client }

var _ domain.FavoriteRepository = (*FavoriteRepo)(nil)

func (r *FavoriteRepo) col(userID string) *firestore.CollectionRef {
	return r.c.Collection(colUsers).Doc(userID).Collection(colFavorites)
}

// Put setDoc 语义：已存在时覆盖 addedAt
func (r *FavoriteRepo) Put(ctx context.Context, m domain.FavoriteMark) error {
	_, err := r.col(m.UserID).Doc(m.PropertyID).Set(ctx, favoriteDoc{PropertyID: m.PropertyID, AddedAt: m.AddedAt})
	return mapErr(err, "favorite")
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, propertyID string) error {
	_, err := r.col(userID).Doc(propertyID).Delete(ctx)
	return mapErr(err, "favorite")
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	// 不用 OrderBy：缺 addedAt 字段的老文档会被查询直接排除
	it := r.col(userID).Documents(ctx)
	defer it.Stop()

	var out []domain.FavoriteMark
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			sortMarks(out)
			return out, nil
		}
		if err != nil {
			return nil, mapErr(err, "list favorites")
		}
		var d favoriteDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, mapErr(err, "decode favorite")
		}
		// 老数据可能没有 propertyId 字段，以文档 id 为准
		out = append(out, domain.FavoriteMark{UserID: userID, PropertyID: snap.Ref.ID, AddedAt: d.AddedAt})
	}
}

// sortMarks 新收藏在前，没有 addedAt 的排最后，同一时间按 propertyId
func sortMarks(ms []domain.FavoriteMark) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].AddedAt, ms[j].AddedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return ms[i].PropertyID < ms[j].PropertyID
	})
}

// DeleteByProperty 跨用户清理某房源的收藏（collection group 查询）
func (r *FavoriteRepo) DeleteByProperty(ctx context.Context, propertyID string) error {
	it := r.c.CollectionGroup(colFavorites).Where("propertyId", "==", propertyID).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return mapErr(err, "list favorites")
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return mapErr(err, "favorite")
		}
	}
}
