package repo

import (
	"context"

	"gorm.io/gorm"

	"property-listing/internal/domain"
	"property-listing/pkg/utils"
)

type PropertyRepo struct{ db *gorm.DB }

var _ domain.PropertyRepository = (*PropertyRepo)(nil)

func NewPropertyRepo(db *gorm.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// Create id 由存储层生成
func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) (string, error) {
	p.ID = utils.NewID()
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", mapErr(err, "property")
	}
	return p.ID, nil
}

func (r *PropertyRepo) Get(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "property")
	}
	return &p, nil
}

func (r *PropertyRepo) List(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Property{})
	if q.OwnerID != "" {
		tx = tx.Where("user_id = ?", q.OwnerID)
	}
	if q.ActiveOnly {
		tx = tx.Where("active = ?", true)
	}
	var out []domain.Property
	if err := tx.Order("created_at desc").Order("id").Find(&out).Error; err != nil {
		return nil, mapErr(err, "list properties")
	}
	return out, nil
}

// Update 只写 patch 里出现的字段
func (r *PropertyRepo) Update(ctx context.Context, id string, patch domain.PropertyPatch) error {
	var changes domain.Property
	fields := patch.Apply(&changes)
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Property
		if err := tx.Select("id").First(&cur, "id = ?", id).Error; err != nil {
			return mapErr(err, "property")
		}
		err := tx.Model(&domain.Property{}).Where("id = ?", id).Select(fields).Updates(&changes).Error
		return mapErr(err, "update property")
	})
}

func (r *PropertyRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Property{})
	if res.Error != nil {
		return mapErr(res.Error, "property")
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, "property")
	}
	return nil
}
