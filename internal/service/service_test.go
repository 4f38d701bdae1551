package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/core/auth"
	"property-listing/internal/core/config"
	"property-listing/internal/core/database"
	"property-listing/internal/domain"
	"property-listing/internal/listing"
	"property-listing/internal/repo"
	apperrors "property-listing/pkg/errors"
)

type fixture struct {
	props *PropertyService
	favs  *FavoriteService
	users *UserService
	dash  *DashboardService
	marks *repo.FavoriteRepo
}

func newFixture(t *testing.T, opts ...PropertyOption) *fixture {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, repo.Models()...))

	marks := repo.NewFavoriteRepo(db)
	opts = append([]PropertyOption{WithFavoriteCleaner(marks)}, opts...)
	props := NewPropertyService(repo.NewPropertyRepo(db), opts...)
	users := NewUserService(repo.NewUserRepo(db), &auth.JWTer{Secret: []byte("test"), Issuer: "test", TTL: time.Hour}, nil)
	favs := NewFavoriteService(marks, props, nil)
	return &fixture{
		props: props,
		favs:  favs,
		users: users,
		dash:  NewDashboardService(props, favs, nil),
		marks: marks,
	}
}

func draft(title string, kind domain.TransactionKind, price float64) domain.PropertyDraft {
	return domain.PropertyDraft{Property: domain.Property{
		Title:           title,
		PropertyType:    domain.PropertyApartment,
		TransactionType: kind,
		Address:         "Calle 10 # 12-30",
		Neighborhood:    "Centro",
		City:            "Ocaña",
		Price:           price,
		Bedrooms:        3,
		Bathrooms:       2,
		TotalArea:       90,
		Description:     "Apartamento amplio con buena iluminación",
	}}
}

func TestCreateStampsAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.props.now = func() time.Time { return at }

	d := draft("  Apto Norte  ", domain.TransactionSale, 250000000)
	d.ID = "client-chosen"
	p, err := f.props.Create(ctx, "u1", d)
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", p.ID)
	assert.Equal(t, "Apto Norte", p.Title)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.Active)
	assert.Equal(t, at, p.CreatedAt)
	assert.Equal(t, at, p.UpdatedAt)

	got, err := f.props.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apto Norte", got.Title)

	_, err = f.props.Create(ctx, "", d)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))

	bad := draft("x", domain.TransactionSale, 0)
	_, err = f.props.Create(ctx, "u1", bad)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}

func TestUpdateOwnershipAndMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.props.Create(ctx, "u1", draft("Apto", domain.TransactionRent, 1200000))
	require.NoError(t, err)

	price := 1300000.0
	_, err = f.props.Update(ctx, "u2", p.ID, domain.PropertyPatch{Price: &price})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	later := p.UpdatedAt.Add(time.Hour)
	f.props.now = func() time.Time { return later }
	got, err := f.props.Update(ctx, "u1", p.ID, domain.PropertyPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, price, got.Price)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, later, got.UpdatedAt)

	neg := -1.0
	_, err = f.props.Update(ctx, "u1", p.ID, domain.PropertyPatch{Price: &neg})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
	stored, err := f.props.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, price, stored.Price)

	_, err = f.props.Update(ctx, "u1", "missing", domain.PropertyPatch{Price: &price})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteCleansFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.props.Create(ctx, "owner", draft("Apto", domain.TransactionRent, 900000))
	require.NoError(t, err)
	_, err = f.favs.Add(ctx, "fan", p.ID)
	require.NoError(t, err)

	assert.True(t, apperrors.IsCode(f.props.Delete(ctx, "fan", p.ID), apperrors.CodeForbidden))
	require.NoError(t, f.props.Delete(ctx, "owner", p.ID))

	_, err = f.props.Get(ctx, p.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	ids, err := f.favs.IDs(ctx, "fan")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCatalogHonoursExcludeInactive(t *testing.T) {
	ctx := context.Background()
	for _, exclude := range []bool{true, false} {
		f := newFixture(t, WithListing(config.Listing{ExcludeInactive: exclude, LookupLimit: 2}))
		on, err := f.props.Create(ctx, "u1", draft("Activo", domain.TransactionRent, 1000000))
		require.NoError(t, err)
		off, err := f.props.Create(ctx, "u1", draft("Inactivo", domain.TransactionSale, 2000000))
		require.NoError(t, err)
		_, err = f.props.SetActive(ctx, "u1", off.ID, false)
		require.NoError(t, err)

		all, err := f.props.Catalog(ctx)
		require.NoError(t, err)
		if exclude {
			require.Len(t, all, 1)
			assert.Equal(t, on.ID, all[0].ID)
		} else {
			assert.Len(t, all, 2)
		}

		owned, err := f.props.ListByOwner(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, owned, 2)
	}
}

func TestBrowseFiltersAndSummarizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.props.Create(ctx, "u1", draft("Villa del Rosario", domain.TransactionRent, 1000000))
	require.NoError(t, err)
	_, err = f.props.Create(ctx, "u1", draft("Casa Campestre", domain.TransactionSale, 3000000))
	require.NoError(t, err)

	spec := listing.DefaultFilterSpec()
	spec.Search = "villa"
	res, err := f.props.Browse(ctx, spec)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Villa del Rosario", res.Items[0].Title)
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Sale)
	assert.Equal(t, 1, res.Summary.Rent)
	assert.InDelta(t, 2000000, res.Summary.AveragePrice, 0.001)

	spec.Kind = "bogus"
	_, err = f.props.Browse(ctx, spec)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}

type flakyRepo struct {
	domain.PropertyRepository
	fail string
}

func (r flakyRepo) Get(ctx context.Context, id string) (*domain.Property, error) {
	if id == r.fail {
		return nil, errors.New("boom")
	}
	return r.PropertyRepository.Get(ctx, id)
}

func TestGetPropertiesByIDsSkipsMisses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.props.Create(ctx, "u1", draft("A", domain.TransactionRent, 1))
	require.NoError(t, err)
	b, err := f.props.Create(ctx, "u1", draft("B", domain.TransactionRent, 2))
	require.NoError(t, err)
	c, err := f.props.Create(ctx, "u1", draft("C", domain.TransactionRent, 3))
	require.NoError(t, err)

	svc := NewPropertyService(flakyRepo{PropertyRepository: f.props.repo, fail: b.ID}, WithListing(config.Listing{LookupLimit: 2}))
	got, err := svc.GetPropertiesByIDs(ctx, []string{c.ID, "gone", b.ID, " " + a.ID + " ", c.ID, ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	empty, err := svc.GetPropertiesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetPropertiesByIDsCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.props.GetPropertiesByIDs(ctx, []string{"a"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRemoteUnavailable))
}

func TestFavoriteService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.props.Create(ctx, "owner", draft("Apto", domain.TransactionRent, 900000))
	require.NoError(t, err)

	_, err = f.favs.Add(ctx, "fan", "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.favs.Add(ctx, "", p.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
	_, err = f.favs.Add(ctx, "fan", " ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	_, err = f.favs.Add(ctx, "fan", p.ID)
	require.NoError(t, err)
	_, err = f.favs.Add(ctx, "fan", p.ID)
	require.NoError(t, err)

	ok, err := f.favs.IsFavorite(ctx, "fan", p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	n, err := f.favs.Count(ctx, "fan")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := f.favs.Properties(ctx, "fan")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, f.favs.Remove(ctx, "fan", p.ID))
	require.NoError(t, f.favs.Remove(ctx, "fan", p.ID))
	ok, err = f.favs.IsFavorite(ctx, "fan", p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cred, err := f.users.Register(ctx, " Ana@Example.com ", "secret1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, "ana@example.com", cred.User.Email)
	assert.Equal(t, "ana", cred.User.DisplayName)

	_, err = f.users.Register(ctx, "ana@example.com", "secret1", "Ana")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	_, err = f.users.Register(ctx, "not-an-email", "secret1", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
	_, err = f.users.Register(ctx, "bob@example.com", "123", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	got, err := f.users.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, cred.User.ID, got.User.ID)

	claims, err := f.users.jwt.Parse(got.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.User.ID, claims.UID)
	assert.Equal(t, domain.RoleUser, claims.Role)

	_, err = f.users.Login(ctx, "ana@example.com", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
	_, err = f.users.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
}

func TestProfileBanAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.users.EnsureAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	again, err := f.users.EnsureAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	cred, err := f.users.Register(ctx, "ana@example.com", "secret1", "Ana")
	require.NoError(t, err)

	name, phone := "Ana María", "3001234567"
	u, err := f.users.UpdateProfile(ctx, cred.User.ID, ProfileUpdate{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	assert.Equal(t, phone, u.Phone)

	assert.True(t, apperrors.IsCode(f.users.Ban(ctx, admin.ID, admin.ID), apperrors.CodeForbidden))
	require.NoError(t, f.users.Ban(ctx, admin.ID, cred.User.ID))
	_, err = f.users.Me(ctx, cred.User.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	page, err := f.users.List(ctx, domain.UserQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.props.Create(ctx, "u1", draft("A", domain.TransactionRentToOwn, 500))
	require.NoError(t, err)
	b, err := f.props.Create(ctx, "u1", draft("B", domain.TransactionSale, 1500))
	require.NoError(t, err)
	_, err = f.props.SetActive(ctx, "u1", b.ID, false)
	require.NoError(t, err)
	other, err := f.props.Create(ctx, "u2", draft("C", domain.TransactionRent, 9000))
	require.NoError(t, err)
	_, err = f.favs.Add(ctx, "u1", other.ID)
	require.NoError(t, err)
	_, err = f.favs.Add(ctx, "u1", a.ID)
	require.NoError(t, err)

	st, err := f.dash.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalProperties)
	assert.Equal(t, 1, st.ActiveListings)
	assert.Equal(t, 2, st.FavoriteProperties)
	assert.InDelta(t, 1000, st.AveragePrice, 0.001)

	empty, err := f.dash.Stats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalProperties)
	assert.Zero(t, empty.AveragePrice)

	_, err = f.dash.Stats(ctx, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
}
