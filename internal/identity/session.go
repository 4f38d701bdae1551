package identity

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "property-listing/pkg/errors"
	"property-listing/pkg/notify"
)

// TokenHolder 需要携带 token 的一方（HTTP SDK）实现
type TokenHolder interface {
	SetToken(token string)
}

type Session struct {
	auth   Authenticator
	holder TokenHolder
	log    *zap.Logger

	mu    sync.Mutex
	token string
	users *notify.Broadcaster[*CurrentUser]
}

var _ Provider = (*Session)(nil)

// NewSession holder 可为 nil
func NewSession(auth Authenticator, holder TokenHolder, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{auth: auth, holder: holder, log: log, users: notify.New[*CurrentUser](nil)}
}

func (s *Session) CurrentUser() *CurrentUser {
	u := s.users.Latest()
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Subscribe() (<-chan *CurrentUser, func()) {
	return s.users.Subscribe()
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*CurrentUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "email and password required")
	}
	cred, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, s.remoteErr(err, "sign in")
	}
	s.apply(cred)
	return s.CurrentUser(), nil
}

func (s *Session) Register(ctx context.Context, email, password, displayName string) (*CurrentUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "email and password required")
	}
	cred, err := s.auth.Register(ctx, email, password, strings.TrimSpace(displayName))
	if err != nil {
		return nil, s.remoteErr(err, "register")
	}
	s.apply(cred)
	return s.CurrentUser(), nil
}

// SignOut 本地清理，不需要远端确认
func (s *Session) SignOut(context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.holder != nil {
		s.holder.SetToken("")
	}
	if s.users.Latest() != nil {
		s.users.Publish(nil)
	}
	return nil
}

// Close 结束所有订阅
func (s *Session) Close() { s.users.Close() }

func (s *Session) apply(cred *Credentials) {
	s.mu.Lock()
	s.token = cred.Token
	s.mu.Unlock()
	if s.holder != nil {
		s.holder.SetToken(cred.Token)
	}
	u := cred.User
	s.users.Publish(&u)
	s.log.Info("signed in", zap.String("userId", u.ID))
}

// 已带业务码的错误原样返回，其它归为远端不可用
func (s *Session) remoteErr(err error, op string) error {
	if apperrors.As(err) != nil {
		return err
	}
	s.log.Warn("identity call failed", zap.String("op", op), zap.Error(err))
	return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, op)
}
