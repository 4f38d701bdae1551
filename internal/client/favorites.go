package client

import (
	"context"
	"net/http"
	"net/url"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

// Favorites 以 domain.FavoriteRepository 的形状暴露收藏接口；
// 服务端按 token 识别用户，userID 只用来防止串号
type Favorites struct {
	c      *Client
	userID func() string
}

var _ domain.FavoriteRepository = (*Favorites)(nil)

// Favorites current 返回当前登录用户 id（通常是 Session.CurrentUser）
func (c *Client) Favorites(current func() string) *Favorites {
	return &Favorites{c: c, userID: current}
}

func (f *Favorites) check(userID string) error {
	if f.userID == nil {
		return nil
	}
	if cur := f.userID(); cur == "" || cur != userID {
		return apperrors.New(apperrors.CodeNotAuthenticated, "not signed in as "+userID)
	}
	return nil
}

func (f *Favorites) Put(ctx context.Context, m domain.FavoriteMark) error {
	if err := f.check(m.UserID); err != nil {
		return err
	}
	return f.c.do(ctx, http.MethodPut, "/favorites/"+url.PathEscape(m.PropertyID), nil, nil)
}

func (f *Favorites) Delete(ctx context.Context, userID, propertyID string) error {
	if err := f.check(userID); err != nil {
		return err
	}
	return f.c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(propertyID), nil, nil)
}

func (f *Favorites) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	if err := f.check(userID); err != nil {
		return nil, err
	}
	var out struct {
		Items []domain.FavoriteMark `json:"items"`
	}
	if err := f.c.do(ctx, http.MethodGet, "/favorites/marks", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
