package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

// PropertyType 取值沿用线上数据（西语）
type PropertyType string

const (
	PropertyHouse     PropertyType = "casa"
	PropertyApartment PropertyType = "apartamento"
	PropertyOffice    PropertyType = "oficina"
	PropertyRetail    PropertyType = "local"
	PropertyLand      PropertyType = "terreno"
	PropertyWarehouse PropertyType = "bodega"
	PropertyFarm      PropertyType = "finca"
)

type TransactionKind string

const (
	TransactionSale      TransactionKind = "venta"
	TransactionRent      TransactionKind = "alquiler"
	TransactionRentToOwn TransactionKind = "alquiler-venta"

	// TransactionAll 只用于筛选，不能落库
	TransactionAll TransactionKind = "todos"
)

type Property struct {
	ID     string `gorm:"primaryKey;size:64" json:"id,omitempty"`
	UserID string `gorm:"index;size:64;not null" json:"userId"`

	Title           string          `gorm:"size:191" json:"title,omitempty"`
	PropertyType    PropertyType    `gorm:"size:16;not null" json:"propertyType" validate:"required,oneof=casa apartamento oficina local terreno bodega finca"`
	TransactionType TransactionKind `gorm:"size:16;index;not null" json:"transactionType" validate:"required,oneof=venta alquiler alquiler-venta"`
	Address         string          `gorm:"size:255;not null" json:"address" validate:"required"`
	Neighborhood    string          `gorm:"size:128" json:"neighborhood" validate:"required"`
	City            string          `gorm:"size:128;index" json:"city" validate:"required"`

	Price             float64  `json:"price" validate:"gt=0"`
	AdministrationFee *float64 `json:"administrationFee,omitempty" validate:"omitempty,gte=0"`

	Bedrooms      int      `json:"bedrooms" validate:"gte=0"`
	Bathrooms     int      `json:"bathrooms" validate:"gte=0"`
	ParkingSpaces *int     `json:"parkingSpaces,omitempty" validate:"omitempty,gte=0"`
	Floor         *int     `json:"floor,omitempty" validate:"omitempty,gte=0"`
	TotalArea     float64  `json:"totalArea" validate:"gt=0"`
	BuiltArea     *float64 `json:"builtArea,omitempty" validate:"omitempty,gt=0"`

	Description  string   `gorm:"type:text" json:"description" validate:"required,min=20"`
	Amenities    []string `gorm:"serializer:json" json:"amenities,omitempty"`
	NearbyPlaces []string `gorm:"serializer:json" json:"nearbyPlaces,omitempty"`
	ImageURLs    []string `gorm:"serializer:json" json:"imageUrls,omitempty" validate:"omitempty,dive,url,startswith=http"`

	Active    bool      `gorm:"index" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (Property) TableName() string { return "properties" }

// Normalize 去掉首尾空白；amenities 是集合（去重 + 排序），其余列表保持顺序
func (p *Property) Normalize() {
	p.ID = NormalizeID(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Address = strings.TrimSpace(p.Address)
	p.Neighborhood = strings.TrimSpace(p.Neighborhood)
	p.City = strings.TrimSpace(p.City)
	p.Description = strings.TrimSpace(p.Description)
	p.Amenities = normalizeSet(p.Amenities)
	p.NearbyPlaces = compact(p.NearbyPlaces)
	p.ImageURLs = compact(p.ImageURLs)
}

// NormalizeID id 比较统一按 trim 后的字符串
func NormalizeID(id string) string { return strings.TrimSpace(id) }

func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeSet(in []string) []string {
	out := compact(in)
	if len(out) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(out))
	uniq := out[:0]
	for _, s := range out {
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.Strings(uniq)
	return uniq
}

// PropertyPatch 局部更新；id / userId / createdAt 不在可写字段里
type PropertyPatch struct {
	Title             *string          `json:"title,omitempty"`
	PropertyType      *PropertyType    `json:"propertyType,omitempty"`
	TransactionType   *TransactionKind `json:"transactionType,omitempty"`
	Address           *string          `json:"address,omitempty"`
	Neighborhood      *string          `json:"neighborhood,omitempty"`
	City              *string          `json:"city,omitempty"`
	Price             *float64         `json:"price,omitempty"`
	AdministrationFee *float64         `json:"administrationFee,omitempty"`
	Bedrooms          *int             `json:"bedrooms,omitempty"`
	Bathrooms         *int             `json:"bathrooms,omitempty"`
	ParkingSpaces     *int             `json:"parkingSpaces,omitempty"`
	Floor             *int             `json:"floor,omitempty"`
	TotalArea         *float64         `json:"totalArea,omitempty"`
	BuiltArea         *float64         `json:"builtArea,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Amenities         *[]string        `json:"amenities,omitempty"`
	NearbyPlaces      *[]string        `json:"nearbyPlaces,omitempty"`
	ImageURLs         *[]string        `json:"imageUrls,omitempty"`
	Active            *bool            `json:"isActive,omitempty"`

	// 服务端打点，不接受客户端传入
	UpdatedAt *time.Time `json:"-"`
}

// Apply 把 patch 合并进 dst，返回被改动的字段名（Go 字段名，gorm Select 可直接用）
func (p PropertyPatch) Apply(dst *Property) []string {
	var fields []string
	set := func(name string, ok bool, fn func()) {
		if ok {
			fn()
			fields = append(fields, name)
		}
	}
	set("Title", p.Title != nil, func() { dst.Title = strings.TrimSpace(*p.Title) })
	set("PropertyType", p.PropertyType != nil, func() { dst.PropertyType = *p.PropertyType })
	set("TransactionType", p.TransactionType != nil, func() { dst.TransactionType = *p.TransactionType })
	set("Address", p.Address != nil, func() { dst.Address = strings.TrimSpace(*p.Address) })
	set("Neighborhood", p.Neighborhood != nil, func() { dst.Neighborhood = strings.TrimSpace(*p.Neighborhood) })
	set("City", p.City != nil, func() { dst.City = strings.TrimSpace(*p.City) })
	set("Price", p.Price != nil, func() { dst.Price = *p.Price })
	set("AdministrationFee", p.AdministrationFee != nil, func() { v := *p.AdministrationFee; dst.AdministrationFee = &v })
	set("Bedrooms", p.Bedrooms != nil, func() { dst.Bedrooms = *p.Bedrooms })
	set("Bathrooms", p.Bathrooms != nil, func() { dst.Bathrooms = *p.Bathrooms })
	set("ParkingSpaces", p.ParkingSpaces != nil, func() { v := *p.ParkingSpaces; dst.ParkingSpaces = &v })
	set("Floor", p.Floor != nil, func() { v := *p.Floor; dst.Floor = &v })
	set("TotalArea", p.TotalArea != nil, func() { dst.TotalArea = *p.TotalArea })
	set("BuiltArea", p.BuiltArea != nil, func() { v := *p.BuiltArea; dst.BuiltArea = &v })
	set("Description", p.Description != nil, func() { dst.Description = strings.TrimSpace(*p.Description) })
	set("Amenities", p.Amenities != nil, func() { dst.Amenities = normalizeSet(*p.Amenities) })
	set("NearbyPlaces", p.NearbyPlaces != nil, func() { dst.NearbyPlaces = compact(*p.NearbyPlaces) })
	set("ImageURLs", p.ImageURLs != nil, func() { dst.ImageURLs = compact(*p.ImageURLs) })
	set("Active", p.Active != nil, func() { dst.Active = *p.Active })
	set("UpdatedAt", p.UpdatedAt != nil, func() { dst.UpdatedAt = *p.UpdatedAt })
	return fields
}

// Empty 除 UpdatedAt 外没有任何字段
func (p PropertyPatch) Empty() bool {
	probe := p
	probe.UpdatedAt = nil
	return len(probe.Apply(&Property{})) == 0
}

// PropertyDraft 新建请求体；isActive 缺省为 true
type PropertyDraft struct {
	Property
	Active *bool `json:"isActive,omitempty"`
}

func (d PropertyDraft) Build() Property {
	p := d.Property
	p.Active = d.Active == nil || *d.Active
	return p
}

type PropertyQuery struct {
	OwnerID    string
	ActiveOnly bool
}

// PropertyRepository 文档库契约：get / query / put(update) / delete / addWithGeneratedId
// Get 查不到返回 pkg/errors CodeNotFound
type PropertyRepository interface {
	Create(ctx context.Context, p *Property) (string, error)
	Get(ctx context.Context, id string) (*Property, error)
	List(ctx context.Context, q PropertyQuery) ([]Property, error)
	Update(ctx context.Context, id string, patch PropertyPatch) error
	Delete(ctx context.Context, id string) error
}
