package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/core/auth"
	"property-listing/internal/core/database"
	"property-listing/internal/domain"
	"property-listing/internal/favorites"
	"property-listing/internal/identity"
	"property-listing/internal/listing"
	"property-listing/internal/repo"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/router"
	apperrors "property-listing/pkg/errors"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, repo.Models()...))

	marks := repo.NewFavoriteRepo(db)
	props := service.NewPropertyService(repo.NewPropertyRepo(db), service.WithFavoriteCleaner(marks))
	favs := service.NewFavoriteService(marks, props, nil)
	jwter := &auth.JWTer{Secret: []byte("e2e"), Issuer: "e2e", TTL: time.Hour}

	srv := httptest.NewServer(router.NewAPIEngine(router.Deps{
		JWT:   jwter,
		Mode:  "test",
		Users: service.NewUserService(repo.NewUserRepo(db), jwter, nil),
		Props: props,
		Favs:  favs,
		Dash:  service.NewDashboardService(props, favs, nil),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleDraft(title string, kind domain.TransactionKind, price float64, beds int) domain.PropertyDraft {
	return domain.PropertyDraft{Property: domain.Property{
		Title:           title,
		PropertyType:    domain.PropertyHouse,
		TransactionType: kind,
		Address:         "Carrera 12 # 8-40",
		Neighborhood:    "La Primavera",
		City:            "Ocaña",
		Price:           price,
		Bedrooms:        beds,
		Bathrooms:       1,
		TotalArea:       80,
		Description:     "Casa esquinera con patio y garaje cubierto",
	}}
}

func TestOwnerFlowOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newAPIServer(t)
	c := New(srv.URL)
	session := identity.NewSession(c, c, nil)

	_, err := c.CreateProperty(ctx, sampleDraft("Sin login", domain.TransactionRent, 1, 1))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))

	owner, err := session.Register(ctx, "owner@example.com", "secret1", "Owner")
	require.NoError(t, err)

	villa, err := c.CreateProperty(ctx, sampleDraft("Villa Real", domain.TransactionRent, 1200000, 3))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, villa.UserID)
	assert.True(t, villa.Active)
	lote, err := c.CreateProperty(ctx, sampleDraft("Lote Norte", domain.TransactionSale, 90000000, 0))
	require.NoError(t, err)

	price := 1250000.0
	up, err := c.UpdateProperty(ctx, villa.ID, domain.PropertyPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, price, up.Price)
	assert.Equal(t, "Villa Real", up.Title)

	_, err = c.SetActive(ctx, lote.ID, false)
	require.NoError(t, err)

	spec := listing.DefaultFilterSpec()
	page, err := c.Browse(ctx, spec)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, villa.ID, page.Items[0].ID)

	spec.Search = "villa"
	beds := 4
	spec.Beds.Min = &beds
	page, err = c.Browse(ctx, spec)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	mine, err := c.MyProperties(ctx, listing.DefaultFilterSpec())
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)
	assert.Equal(t, 1, mine.Summary.Active)

	// 业主范围的搜索也看描述和类型字段，Summary 仍是全部自有房源
	mine, err = c.MyProperties(ctx, listing.FilterSpec{Search: "garaje", Kind: domain.TransactionSale})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, lote.ID, mine.Items[0].ID)
	assert.Equal(t, 2, mine.Summary.Total)
	mine, err = c.MyProperties(ctx, listing.FilterSpec{PropertyType: domain.PropertyFarm})
	require.NoError(t, err)
	assert.Empty(t, mine.Items)

	stats, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProperties)
	assert.Equal(t, 1, stats.ActiveListings)

	// 换个用户不能改别人的房源
	require.NoError(t, session.SignOut(ctx))
	_, err = session.Register(ctx, "other@example.com", "secret1", "")
	require.NoError(t, err)
	assert.True(t, apperrors.IsCode(c.DeleteProperty(ctx, villa.ID), apperrors.CodeForbidden))

	_, err = session.SignIn(ctx, "owner@example.com", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
	_, err = session.SignIn(ctx, "owner@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, c.DeleteProperty(ctx, villa.ID))
	_, err = c.GetProperty(ctx, villa.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestReconcilerOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newAPIServer(t)

	// 业主先发布两套房源
	ownerClient := New(srv.URL)
	_, err := identity.NewSession(ownerClient, ownerClient, nil).Register(ctx, "owner@example.com", "secret1", "")
	require.NoError(t, err)
	a, err := ownerClient.CreateProperty(ctx, sampleDraft("Casa A", domain.TransactionRent, 1000000, 2))
	require.NoError(t, err)
	b, err := ownerClient.CreateProperty(ctx, sampleDraft("Casa B", domain.TransactionRentToOwn, 2000000, 3))
	require.NoError(t, err)

	c := New(srv.URL)
	session := identity.NewSession(c, c, nil)
	current := func() string {
		if u := session.CurrentUser(); u != nil {
			return u.ID
		}
		return ""
	}
	rec := favorites.New(c.Favorites(current), c)
	defer rec.Close()

	bindCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = rec.Bind(bindCtx, session) }()

	fan, err := session.Register(ctx, "fan@example.com", "secret1", "Fan")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		s := rec.Snapshot()
		return s.State == favorites.StateReady && s.UserID == fan.ID
	}, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, rec.Count())

	require.NoError(t, rec.Add(ctx, fan.ID, a.ID))
	require.NoError(t, rec.Add(ctx, fan.ID, b.ID))
	assert.Equal(t, 2, rec.Count())
	assert.True(t, rec.IsFavorite(a.ID))

	// 房源被删后，刷新时静默丢掉
	require.NoError(t, ownerClient.DeleteProperty(ctx, b.ID))
	require.NoError(t, rec.Refresh(ctx))
	snap := rec.Snapshot()
	require.Equal(t, favorites.StateReady, snap.State)
	require.Len(t, snap.Properties, 1)
	assert.Equal(t, a.ID, snap.Properties[0].ID)

	require.NoError(t, rec.Remove(ctx, fan.ID, a.ID))
	assert.Zero(t, rec.Count())
	ids, err := c.Favorites(current).ListByUser(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, session.SignOut(ctx))
	require.Eventually(t, func() bool {
		return rec.Snapshot().State == favorites.StateUnauthenticated
	}, 3*time.Second, 10*time.Millisecond)
	err = rec.Remove(ctx, fan.ID, a.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
}
