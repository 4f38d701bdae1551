package notify

import "sync"

// Broadcaster 最新值广播：每个订阅者缓冲 1，来不及消费的旧值被新值覆盖。
// 订阅时立即收到当前值。
type Broadcaster[T any] struct {
	mu     sync.Mutex
	latest T
	seq    int
	subs   map[int]chan T
	closed bool
}

func New[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{latest: initial, subs: make(map[int]chan T)}
}

func (b *Broadcaster[T]) Latest() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Subscribe 返回的 cancel 可重复调用
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- b.latest
	b.seq++
	id := b.seq
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.latest = v
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Close 关闭所有订阅通道
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
