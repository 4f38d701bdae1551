package favorites

import (
	"errors"

	"property-listing/internal/domain"
)

type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Snapshot 某一时刻的只读视图，Properties 是拷贝
type Snapshot struct {
	State      State
	UserID     string
	Properties []domain.Property
	Err        error
}

// ErrSuperseded 加载结果过期（用户已切换、登出或有更新的加载）被丢弃
var ErrSuperseded = errors.New("favorites: load superseded")
