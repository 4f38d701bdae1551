package listing

import (
	"math"
	"strings"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

// IntRange / FloatRange 闭区间，nil 表示不限
type IntRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func (r IntRange) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r IntRange) Unset() bool { return r.Min == nil && r.Max == nil }

type FloatRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r FloatRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r FloatRange) Unset() bool { return r.Min == nil && r.Max == nil }

// SearchScope 搜索词覆盖的字段范围
type SearchScope int

const (
	// ScopeCatalog title/address/neighborhood/city
	ScopeCatalog SearchScope = iota
	// ScopeOwner 业主管理页，额外搜 description 和两个类型字段
	ScopeOwner
)

type FilterSpec struct {
	Kind         domain.TransactionKind `json:"kind"`
	PropertyType domain.PropertyType    `json:"propertyType,omitempty"` // 空表示不限
	Search       string                 `json:"search,omitempty"`
	Scope        SearchScope            `json:"-"`
	Beds         IntRange               `json:"beds"`
	Baths        IntRange               `json:"baths"`
	Area         FloatRange             `json:"area"`
	Price        FloatRange             `json:"price"`
}

// DefaultFilterSpec 清空后的筛选条件
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{Kind: domain.TransactionAll}
}

func (s FilterSpec) allKinds() bool {
	return s.Kind == "" || s.Kind == domain.TransactionAll
}

// IsIdentity 没有任何生效条件
func (s FilterSpec) IsIdentity() bool {
	return s.allKinds() && s.PropertyType == "" && strings.TrimSpace(s.Search) == "" &&
		s.Beds.Unset() && s.Baths.Unset() && s.Area.Unset() && s.Price.Unset()
}

func (s FilterSpec) Validate() error {
	switch s.Kind {
	case "", domain.TransactionAll, domain.TransactionSale, domain.TransactionRent, domain.TransactionRentToOwn:
	default:
		return apperrors.New(apperrors.CodeInvalidArgument, "unknown kind: "+string(s.Kind))
	}
	if s.PropertyType != "" {
		if pt, err := domain.ParsePropertyType(string(s.PropertyType)); err != nil || pt != s.PropertyType {
			return apperrors.New(apperrors.CodeInvalidArgument, "unknown property type: "+string(s.PropertyType))
		}
	}
	if err := checkInt("beds", s.Beds); err != nil {
		return err
	}
	if err := checkInt("baths", s.Baths); err != nil {
		return err
	}
	if err := checkFloat("area", s.Area); err != nil {
		return err
	}
	return checkFloat("price", s.Price)
}

func checkInt(name string, r IntRange) error {
	if (r.Min != nil && *r.Min < 0) || (r.Max != nil && *r.Max < 0) {
		return apperrors.New(apperrors.CodeInvalidArgument, name+" bound must be >= 0")
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return apperrors.New(apperrors.CodeInvalidArgument, name+" min greater than max")
	}
	return nil
}

func checkFloat(name string, r FloatRange) error {
	for _, b := range []*float64{r.Min, r.Max} {
		if b != nil && (math.IsNaN(*b) || *b < 0) {
			return apperrors.New(apperrors.CodeInvalidArgument, name+" bound must be a non-negative number")
		}
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return apperrors.New(apperrors.CodeInvalidArgument, name+" min greater than max")
	}
	return nil
}

// Apply 条件之间是 AND；搜索词在 Scope 覆盖的字段中任一命中即可。
// 结果保持输入顺序，不修改入参，总是返回新切片。
func Apply(properties []domain.Property, spec FilterSpec) []domain.Property {
	out := make([]domain.Property, 0, len(properties))
	term := strings.ToLower(strings.TrimSpace(spec.Search))
	for _, p := range properties {
		if matches(p, spec, term) {
			out = append(out, p)
		}
	}
	return out
}

// Matches 单条判断，term 为空时跳过搜索
func Matches(p domain.Property, spec FilterSpec) bool {
	return matches(p, spec, strings.ToLower(strings.TrimSpace(spec.Search)))
}

func matches(p domain.Property, spec FilterSpec, term string) bool {
	if !spec.allKinds() && p.TransactionType != spec.Kind {
		return false
	}
	if spec.PropertyType != "" && p.PropertyType != spec.PropertyType {
		return false
	}
	if term != "" && !searchHit(p, spec.Scope, term) {
		return false
	}
	return spec.Beds.Contains(p.Bedrooms) &&
		spec.Baths.Contains(p.Bathrooms) &&
		spec.Area.Contains(p.TotalArea) &&
		spec.Price.Contains(p.Price)
}

func searchHit(p domain.Property, scope SearchScope, term string) bool {
	if containsAny(term, p.Title, p.Address, p.Neighborhood, p.City) {
		return true
	}
	return scope == ScopeOwner &&
		containsAny(term, p.Description, string(p.PropertyType), string(p.TransactionType))
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
