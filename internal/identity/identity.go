package identity

import "context"

// CurrentUser 当前登录用户快照，未登录为 nil
type CurrentUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type Credentials struct {
	Token string      `json:"token"`
	User  CurrentUser `json:"user"`
}

// Authenticator 身份后端：进程内是 service.UserService，客户端是 HTTP SDK
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, email, password, displayName string) (*Credentials, error)
}

// Provider 当前用户 + 变化流
type Provider interface {
	CurrentUser() *CurrentUser
	Subscribe() (<-chan *CurrentUser, func())
	SignIn(ctx context.Context, email, password string) (*CurrentUser, error)
	SignOut(ctx context.Context) error
	Register(ctx context.Context, email, password, displayName string) (*CurrentUser, error)
}
