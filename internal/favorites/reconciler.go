package favorites

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"property-listing/internal/domain"
	"property-listing/internal/identity"
	apperrors "property-listing/pkg/errors"
	"property-listing/pkg/notify"
)

// Resolver 批量取房源，单条缺失直接丢弃，只有整体失败才返回 error
type Resolver interface {
	GetPropertiesByIDs(ctx context.Context, ids []string) ([]domain.Property, error)
}

// Reconciler 当前用户收藏列表的唯一持有者。
// 远端调用期间不持锁；generation + userID 决定结果是否还能落地。
type Reconciler struct {
	marks domain.FavoriteRepository
	props Resolver
	log   *zap.Logger
	now   func() time.Time

	mu     sync.Mutex
	state  State
	userID string
	items  []domain.Property
	err    error
	gen    uint64
	cancel context.CancelFunc

	// 加载进行中时的本地变更，加载落地时合并
	tombstones map[string]struct{}
	added      map[string]domain.Property

	updates *notify.Broadcaster[Snapshot]
}

type Option func(*Reconciler)

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func New(marks domain.FavoriteRepository, props Resolver, opts ...Option) *Reconciler {
	r := &Reconciler{
		marks: marks,
		props: props,
		log:   zap.NewNop(),
		now:   time.Now,
		state: StateUnauthenticated,
	}
	for _, o := range opts {
		o(r)
	}
	r.updates = notify.New(Snapshot{State: StateUnauthenticated})
	return r
}

// Load 进入 Loading 并拉取 userID 的收藏；被更新的请求取代时返回 ErrSuperseded
func (r *Reconciler) Load(ctx context.Context, userID string) error {
	userID = domain.NormalizeID(userID)
	if userID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "user id required")
	}
	r.mu.Lock()
	t := r.beginLocked(ctx, userID)
	r.mu.Unlock()
	return r.fetch(t)
}

// loadTicket 一次加载占用的代号；只有代号仍是最新时结果才能落地
type loadTicket struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
	userID string
}

// beginLocked 同步占住 generation/userID/cancel 并发布 Loading
func (r *Reconciler) beginLocked(ctx context.Context, userID string) loadTicket {
	r.gen++
	if r.cancel != nil {
		r.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	if r.userID != userID {
		r.items = nil
	}
	r.userID = userID
	r.state = StateLoading
	r.err = nil
	r.tombstones = make(map[string]struct{})
	r.added = make(map[string]domain.Property)
	r.publishLocked()
	return loadTicket{ctx: loadCtx, cancel: cancel, gen: r.gen, userID: userID}
}

// fetch 不持锁做远端调用
func (r *Reconciler) fetch(t loadTicket) error {
	defer t.cancel()

	marks, err := r.marks.ListByUser(t.ctx, t.userID)
	if err != nil {
		return r.fail(t.gen, t.userID, err, "list favorite ids")
	}
	ids := make([]string, 0, len(marks))
	for _, m := range marks {
		if id := domain.NormalizeID(m.PropertyID); id != "" {
			ids = append(ids, id)
		}
	}

	var props []domain.Property
	if len(ids) > 0 {
		props, err = r.props.GetPropertiesByIDs(t.ctx, ids)
		if err != nil {
			return r.fail(t.gen, t.userID, err, "resolve favorites")
		}
	}
	return r.apply(t.gen, t.userID, props)
}

func (r *Reconciler) currentLocked(gen uint64, userID string) bool {
	return gen == r.gen && r.userID == userID && r.state == StateLoading
}

func (r *Reconciler) apply(gen uint64, userID string, props []domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(gen, userID) {
		r.log.Debug("drop stale favorites", zap.String("userId", userID))
		return ErrSuperseded
	}

	items := make([]domain.Property, 0, len(props)+len(r.added))
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		id := domain.NormalizeID(p.ID)
		if _, gone := r.tombstones[id]; gone {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, p)
	}
	for id, p := range r.added {
		if _, ok := seen[id]; !ok {
			items = append(items, p)
		}
	}

	r.items = items
	r.state = StateReady
	r.err = nil
	r.tombstones = nil
	r.added = nil
	r.cancel = nil
	r.publishLocked()
	return nil
}

func (r *Reconciler) fail(gen uint64, userID string, cause error, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(gen, userID) {
		return ErrSuperseded
	}
	err := remoteErr(cause, op)
	r.log.Warn("load favorites failed", zap.String("userId", userID), zap.Error(cause))

	r.items = nil
	r.state = StateError
	r.err = err
	r.tombstones = nil
	r.added = nil
	r.cancel = nil
	r.publishLocked()
	return err
}

// Refresh 重新加载当前用户
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	state, userID := r.state, r.userID
	r.mu.Unlock()
	if state == StateUnauthenticated {
		return apperrors.New(apperrors.CodeNotAuthenticated, "no current user")
	}
	return r.Load(ctx, userID)
}

// SignOut 清空列表，作废进行中的加载
func (r *Reconciler) SignOut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.state == StateUnauthenticated {
		return
	}
	r.state = StateUnauthenticated
	r.userID = ""
	r.items = nil
	r.err = nil
	r.tombstones = nil
	r.added = nil
	r.publishLocked()
}

// Remove 远端确认删除后才从本地列表移除，失败时列表不变
func (r *Reconciler) Remove(ctx context.Context, userID, propertyID string) error {
	userID, propertyID = domain.NormalizeID(userID), domain.NormalizeID(propertyID)
	if err := r.checkUser(userID); err != nil {
		return err
	}
	if propertyID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "property id required")
	}

	if err := r.marks.Delete(ctx, userID, propertyID); err != nil {
		return remoteErr(err, "remove favorite")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != userID || r.state == StateUnauthenticated {
		return nil
	}
	r.items = without(r.items, propertyID)
	if r.state == StateLoading {
		r.tombstones[propertyID] = struct{}{}
		delete(r.added, propertyID)
	}
	r.publishLocked()
	return nil
}

// Add 写入收藏标记；能解析到房源时追加到本地列表
func (r *Reconciler) Add(ctx context.Context, userID, propertyID string) error {
	userID, propertyID = domain.NormalizeID(userID), domain.NormalizeID(propertyID)
	if err := r.checkUser(userID); err != nil {
		return err
	}
	if propertyID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "property id required")
	}

	mark := domain.FavoriteMark{UserID: userID, PropertyID: propertyID, AddedAt: r.now()}
	if err := r.marks.Put(ctx, mark); err != nil {
		return remoteErr(err, "add favorite")
	}

	props, err := r.props.GetPropertiesByIDs(ctx, []string{propertyID})
	if err != nil {
		// 标记已写入，列表等下次刷新
		r.log.Warn("resolve added favorite failed", zap.String("propertyId", propertyID), zap.Error(err))
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != userID || r.state == StateUnauthenticated {
		return nil
	}
	if r.state == StateLoading {
		delete(r.tombstones, propertyID)
	}
	if len(props) == 0 {
		return nil
	}
	p := props[0]
	if r.state == StateLoading {
		r.added[propertyID] = p
	}
	if indexOf(r.items, propertyID) < 0 && r.state != StateError {
		r.items = append(append([]domain.Property(nil), r.items...), p)
		r.publishLocked()
	}
	return nil
}

func (r *Reconciler) checkUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateUnauthenticated || userID == "" || userID != r.userID {
		return apperrors.New(apperrors.CodeNotAuthenticated, "user is not the signed-in user")
	}
	return nil
}

func (r *Reconciler) IsFavorite(propertyID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return indexOf(r.items, domain.NormalizeID(propertyID)) >= 0
}

func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe 先收到当前快照，之后每次状态变化收到最新快照
func (r *Reconciler) Subscribe() (<-chan Snapshot, func()) {
	return r.updates.Subscribe()
}

// Bind 跟随身份流：有用户且与当前不同就加载，无用户就登出。ctx 结束时返回。
func (r *Reconciler) Bind(ctx context.Context, p identity.Provider) error {
	users, unsubscribe := p.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-users:
			if !ok {
				return nil
			}
			if u == nil {
				r.SignOut()
				continue
			}
			// 在循环里同步占位，事件顺序即加载顺序
			uid := domain.NormalizeID(u.ID)
			r.mu.Lock()
			if uid == "" || (r.state != StateUnauthenticated && r.userID == uid) {
				r.mu.Unlock()
				continue
			}
			t := r.beginLocked(ctx, uid)
			r.mu.Unlock()

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.fetch(t); err != nil && !errors.Is(err, ErrSuperseded) {
					r.log.Debug("bind load", zap.String("userId", t.userID), zap.Error(err))
				}
			}()
		}
	}
}

// Close 结束所有订阅
func (r *Reconciler) Close() {
	r.SignOut()
	r.updates.Close()
}

func (r *Reconciler) snapshotLocked() Snapshot {
	return Snapshot{
		State:      r.state,
		UserID:     r.userID,
		Properties: append([]domain.Property(nil), r.items...),
		Err:        r.err,
	}
}

func (r *Reconciler) publishLocked() {
	r.updates.Publish(r.snapshotLocked())
}

func without(items []domain.Property, id string) []domain.Property {
	out := make([]domain.Property, 0, len(items))
	for _, p := range items {
		if domain.NormalizeID(p.ID) != id {
			out = append(out, p)
		}
	}
	return out
}

func indexOf(items []domain.Property, id string) int {
	for i, p := range items {
		if domain.NormalizeID(p.ID) == id {
			return i
		}
	}
	return -1
}

// 已带业务码的错误保留（如 NotAuthenticated），其余都是远端不可用
func remoteErr(err error, op string) error {
	if typed := apperrors.As(err); typed != nil && typed.Code() != apperrors.CodeInternal {
		return typed
	}
	return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, op)
}
