package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

func sample() []domain.Property {
	mk := func(id, title, location string, price float64, beds, baths int, area float64, kind domain.TransactionKind) domain.Property {
		return domain.Property{
			ID: id, Title: title, Address: location, City: "Ocaña",
			Price: price, Bedrooms: beds, Bathrooms: baths, TotalArea: area,
			TransactionType: kind, Active: true,
		}
	}
	return []domain.Property{
		mk("1", "Casa Harbor", "2699 Villa Central, Ocaña, N. Santander", 1600000, 3, 2, 6.7, domain.TransactionRent),
		mk("2", "Apartamento Edificio Beverly", "2821 Villa Carolina, Ocaña, N. Santander", 1200000, 4, 2, 47.5, domain.TransactionRent),
		mk("3", "Casa de campestre", "909 Lagos Country, Ocaña, N. Santander", 2400000, 4, 3, 80, domain.TransactionSale),
		mk("4", "Apartamento Torre ISA", "210 Lagos Country, Ocaña, N. Santander", 2600000, 4, 2, 48, domain.TransactionSale),
		mk("5", "Casa Centro", "243 Notarias, Ocaña, N. Santander", 1400000, 2, 1, 37.5, domain.TransactionRent),
		mk("6", "Apartamento Edificio Caribe", "101 Buenos Aires, Ocaña, N. Santander", 1600000, 3, 1, 35, domain.TransactionSale),
	}
}

func ids(ps []domain.Property) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestApplyIdentity(t *testing.T) {
	in := sample()
	assert.Equal(t, in, Apply(in, DefaultFilterSpec()))
	assert.Equal(t, in, Apply(in, FilterSpec{Search: "   "}))
}

func TestApplyEmptyInput(t *testing.T) {
	out := Apply(nil, FilterSpec{Kind: domain.TransactionRent})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyByKind(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "5"}, ids(Apply(sample(), FilterSpec{Kind: domain.TransactionRent})))
	assert.Equal(t, []string{"3", "4", "6"}, ids(Apply(sample(), FilterSpec{Kind: domain.TransactionSale})))
	assert.Empty(t, Apply(sample(), FilterSpec{Kind: domain.TransactionRentToOwn}))
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, ids(Apply(sample(), FilterSpec{Search: "Villa"})))
	assert.Equal(t, []string{"1", "2"}, ids(Apply(sample(), FilterSpec{Search: "  villa "})))
	assert.Equal(t, []string{"2", "6"}, ids(Apply(sample(), FilterSpec{Search: "edificio"})))
}

func TestApplyRangesAreInclusive(t *testing.T) {
	spec := FilterSpec{
		Beds:  IntRange{Min: intp(3), Max: intp(4)},
		Price: FloatRange{Max: floatp(1600000)},
	}
	assert.Equal(t, []string{"1", "2", "6"}, ids(Apply(sample(), spec)))

	spec = FilterSpec{Area: FloatRange{Min: floatp(47.5), Max: floatp(48)}, Baths: IntRange{Max: intp(2)}}
	assert.Equal(t, []string{"2", "4"}, ids(Apply(sample(), spec)))
}

func TestApplyIsConjunctive(t *testing.T) {
	spec := FilterSpec{Kind: domain.TransactionSale, Search: "apartamento", Baths: IntRange{Min: intp(2)}}
	assert.Equal(t, []string{"4"}, ids(Apply(sample(), spec)))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := sample()
	snapshot := sample()
	_ = Apply(in, FilterSpec{Kind: domain.TransactionRent, Search: "casa"})
	_ = Apply(in, FilterSpec{Price: FloatRange{Min: floatp(2000000)}})
	assert.Equal(t, snapshot, in)
}

func TestApplyResultsSatisfyPredicatesInOrder(t *testing.T) {
	in := sample()
	specs := []FilterSpec{
		{Kind: domain.TransactionRent, Beds: IntRange{Min: intp(3)}},
		{Search: "ocaña", Price: FloatRange{Min: floatp(1300000), Max: floatp(2500000)}},
		{Area: FloatRange{Min: floatp(30)}, Baths: IntRange{Min: intp(1), Max: intp(1)}},
	}
	for _, spec := range specs {
		out := Apply(in, spec)
		last := -1
		for _, p := range out {
			assert.True(t, Matches(p, spec))
			pos := indexOf(in, p.ID)
			assert.Greater(t, pos, last)
			last = pos
		}
	}
}

func indexOf(ps []domain.Property, id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func TestCountAndAverage(t *testing.T) {
	in := sample()
	assert.Equal(t, len(in), CountByKind(in, domain.TransactionAll))
	assert.Equal(t, 3, CountByKind(in, domain.TransactionRent))
	assert.Equal(t, 0.0, AveragePrice(nil))
	assert.Equal(t, 200.0, AveragePrice([]domain.Property{{Price: 100}, {Price: 300}}))

	in[0].Active = false
	s := Summarize(in)
	assert.Equal(t, Summary{Total: 6, Sale: 3, Rent: 3, Active: 5, AveragePrice: AveragePrice(in)}, s)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultFilterSpec().Validate())
	err := FilterSpec{Kind: "lease"}.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
	err = FilterSpec{Beds: IntRange{Min: intp(4), Max: intp(2)}}.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
	err = FilterSpec{Price: FloatRange{Min: floatp(-1)}}.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}

func TestValuesEncoding(t *testing.T) {
	spec := FilterSpec{
		Kind:         domain.TransactionRent,
		PropertyType: domain.PropertyHouse,
		Search:       " villa ",
		Scope:        ScopeOwner,
		Beds:         IntRange{Min: intp(2)},
		Price:        FloatRange{Max: floatp(1500000.5)},
	}
	assert.Equal(t, "kind=alquiler&maxPrice=1500000.5&minBeds=2&propertyType=casa&q=villa", spec.Values().Encode())
	assert.Empty(t, DefaultFilterSpec().Values().Encode())
}

func managed() []domain.Property {
	return []domain.Property{
		{ID: "a", Title: "Casa norte", PropertyType: domain.PropertyHouse, TransactionType: domain.TransactionSale,
			Address: "Calle 3", City: "Ocaña", Description: "Patio amplio con piscina"},
		{ID: "b", Title: "Oficina 204", PropertyType: domain.PropertyOffice, TransactionType: domain.TransactionRent,
			Address: "Carrera 11", City: "Ocaña", Description: "Vista a la plaza, piscina comunal"},
		{ID: "c", Title: "Casa sur", PropertyType: domain.PropertyHouse, TransactionType: domain.TransactionRent,
			Address: "Calle 40", City: "Ocaña", Description: "Dos plantas"},
	}
}

func TestApplyByPropertyType(t *testing.T) {
	got := Apply(managed(), FilterSpec{PropertyType: domain.PropertyHouse})
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got = Apply(managed(), FilterSpec{PropertyType: domain.PropertyHouse, Kind: domain.TransactionRent})
	assert.Equal(t, []string{"c"}, ids(got))

	assert.Empty(t, Apply(managed(), FilterSpec{PropertyType: domain.PropertyFarm}))
	assert.False(t, FilterSpec{PropertyType: domain.PropertyHouse}.IsIdentity())
}

func TestOwnerScopeSearchesMoreFields(t *testing.T) {
	// 描述里的词只在业主范围内命中
	assert.Empty(t, Apply(managed(), FilterSpec{Search: "piscina"}))
	assert.Equal(t, []string{"a", "b"}, ids(Apply(managed(), FilterSpec{Search: "PISCINA", Scope: ScopeOwner})))

	assert.Equal(t, []string{"b"}, ids(Apply(managed(), FilterSpec{Search: "oficina", Scope: ScopeOwner})))
	assert.Equal(t, []string{"b", "c"}, ids(Apply(managed(), FilterSpec{Search: "alquiler", Scope: ScopeOwner})))
	assert.Empty(t, Apply(managed(), FilterSpec{Search: "alquiler"}))
}

func TestValidatePropertyType(t *testing.T) {
	require.NoError(t, FilterSpec{PropertyType: domain.PropertyWarehouse}.Validate())
	err := FilterSpec{PropertyType: "castle"}.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
	// 别名只在入口解析，进了 FilterSpec 必须是线上取值
	err = FilterSpec{PropertyType: "house"}.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}
