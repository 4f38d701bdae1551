package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/core/auth"
	"property-listing/internal/core/database"
	"property-listing/internal/domain"
	"property-listing/internal/repo"
	"property-listing/internal/service"
	resp "property-listing/internal/transport/http/response"
)

type env struct {
	deps  Deps
	admin *domain.User
	users *service.UserService
	props *service.PropertyService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, repo.Models()...))

	jwter := &auth.JWTer{Secret: []byte("router"), Issuer: "router", TTL: time.Hour}
	marks := repo.NewFavoriteRepo(db)
	props := service.NewPropertyService(repo.NewPropertyRepo(db), service.WithFavoriteCleaner(marks))
	favs := service.NewFavoriteService(marks, props, nil)
	users := service.NewUserService(repo.NewUserRepo(db), jwter, nil)

	admin, err := users.EnsureAdmin(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	return &env{
		deps: Deps{
			JWT: jwter, Mode: "test",
			Users: users, Props: props, Favs: favs,
			Dash: service.NewDashboardService(props, favs, nil),
		},
		admin: admin,
		users: users,
		props: props,
	}
}

func call(t *testing.T, h http.Handler, method, path, token, body string) resp.Envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out resp.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	h := NewAPIEngine(e.deps)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	call(t, h, http.MethodGet, "/api/v1/properties/nope", "", "")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `api_response_codes_total{code="404",path="/api/v1/properties/:id"}`)
}

func TestAPIEnvelopeCodes(t *testing.T) {
	e := newEnv(t)
	h := NewAPIEngine(e.deps)

	assert.Equal(t, resp.CodeUnauthorized, call(t, h, http.MethodGet, "/api/v1/favorites", "", "").Code)
	assert.Equal(t, resp.CodeUnauthorized, call(t, h, http.MethodGet, "/api/v1/me", "garbage", "").Code)
	assert.Equal(t, resp.CodeNotFound, call(t, h, http.MethodGet, "/api/v1/properties/nope", "", "").Code)
	assert.Equal(t, resp.CodeBadRequest, call(t, h, http.MethodGet, "/api/v1/properties?kind=bogus", "", "").Code)
	assert.Equal(t, resp.CodeBadRequest, call(t, h, http.MethodGet, "/api/v1/properties?minBeds=3&maxBeds=1", "", "").Code)
	for _, q := range []string{"minBeds=two", "minBeds=-1", "maxPrice=-5", "minArea=NaN", "propertyType=castle"} {
		assert.Equal(t, resp.CodeBadRequest, call(t, h, http.MethodGet, "/api/v1/properties?"+q, "", "").Code, q)
	}
	assert.Equal(t, resp.CodeOK, call(t, h, http.MethodGet, "/api/v1/properties?propertyType=house&kind=rent&minBeds=0", "", "").Code)

	reg := call(t, h, http.MethodPost, "/api/v1/auth/register", "", `{"email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, resp.CodeOK, reg.Code)
	var cred struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(reg.Data, &cred))

	dup := call(t, h, http.MethodPost, "/api/v1/auth/register", "", `{"email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, resp.CodeConflict, dup.Code)

	created := call(t, h, http.MethodPost, "/api/v1/properties", cred.Token, `{
		"title":"Apto","propertyType":"apartamento","transactionType":"alquiler",
		"address":"Calle 1","neighborhood":"Centro","city":"Ocaña","price":800000,
		"bedrooms":2,"bathrooms":1,"totalArea":50,"description":"Apartamento pequeño y bien ubicado"}`)
	require.Equal(t, resp.CodeOK, created.Code, created.Msg)
	var p domain.Property
	require.NoError(t, json.Unmarshal(created.Data, &p))

	countMine := func(q string) int {
		out := call(t, h, http.MethodGet, "/api/v1/my/properties?"+q, cred.Token, "")
		require.Equal(t, resp.CodeOK, out.Code, out.Msg)
		var page struct {
			Items []domain.Property `json:"items"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &page))
		return len(page.Items)
	}
	assert.Equal(t, 1, countMine("propertyType=apartamento"))
	assert.Equal(t, 0, countMine("propertyType=casa"))
	assert.Equal(t, 1, countMine("q=ubicado"))
	assert.Equal(t, resp.CodeBadRequest, call(t, h, http.MethodGet, "/api/v1/my/properties?maxBaths=x", cred.Token, "").Code)

	// 不可写字段和未知字段都拒绝
	bad := call(t, h, http.MethodPut, "/api/v1/properties/"+p.ID, cred.Token, `{"color":"red"}`)
	assert.Equal(t, resp.CodeBadRequest, bad.Code)
	empty := call(t, h, http.MethodPut, "/api/v1/properties/"+p.ID, cred.Token, `{"id":"x"}`)
	assert.Equal(t, resp.CodeBadRequest, empty.Code)

	missing := call(t, h, http.MethodPatch, "/api/v1/properties/"+p.ID+"/active", cred.Token, `{}`)
	assert.Equal(t, resp.CodeBadRequest, missing.Code)

	fav := call(t, h, http.MethodPut, "/api/v1/favorites/"+p.ID, cred.Token, "")
	assert.Equal(t, resp.CodeOK, fav.Code)
	is := call(t, h, http.MethodGet, "/api/v1/favorites/"+p.ID, cred.Token, "")
	assert.JSONEq(t, `{"isFavorite":true}`, string(is.Data))
	ids := call(t, h, http.MethodGet, "/api/v1/favorites/ids", cred.Token, "")
	assert.JSONEq(t, `{"ids":["`+p.ID+`"]}`, string(ids.Data))
}

func TestAdminEngineRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	h := NewAdminEngine(e.deps)
	ctx := context.Background()

	cred, err := e.users.Register(ctx, "ana@example.com", "secret1", "")
	require.NoError(t, err)
	adminTok, err := e.deps.JWT.IssueFor(e.admin.ID, domain.RoleAdmin, e.admin.Email)
	require.NoError(t, err)

	assert.Equal(t, resp.CodeUnauthorized, call(t, h, http.MethodGet, "/admin/v1/users", "", "").Code)
	assert.Equal(t, resp.CodeForbidden, call(t, h, http.MethodGet, "/admin/v1/users", cred.Token, "").Code)

	list := call(t, h, http.MethodGet, "/admin/v1/users?limit=10", adminTok, "")
	require.Equal(t, resp.CodeOK, list.Code)
	var page service.UserPage
	require.NoError(t, json.Unmarshal(list.Data, &page))
	assert.EqualValues(t, 2, page.Total)

	p, err := e.props.Create(ctx, cred.User.ID, domain.PropertyDraft{Property: domain.Property{
		PropertyType: domain.PropertyLand, TransactionType: domain.TransactionSale,
		Address: "Vereda El Llano", Neighborhood: "Rural", City: "Ocaña",
		Price: 50000000, TotalArea: 1000, Description: "Lote plano con acceso a vía principal",
	}})
	require.NoError(t, err)

	off := call(t, h, http.MethodPost, "/admin/v1/properties/"+p.ID+"/deactivate", adminTok, "")
	require.Equal(t, resp.CodeOK, off.Code)
	got, err := e.props.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	ban := call(t, h, http.MethodPost, "/admin/v1/users/"+cred.User.ID+"/ban", adminTok, "")
	require.Equal(t, resp.CodeOK, ban.Code)
	self := call(t, h, http.MethodPost, "/admin/v1/users/"+e.admin.ID+"/ban", adminTok, "")
	assert.Equal(t, resp.CodeForbidden, self.Code)
}
