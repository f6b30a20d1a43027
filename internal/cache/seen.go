// Package cache remembers recently handled keys so redelivered messages
// are applied once.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// SeenSet is a bounded set of keys with expiry. The least recently
// touched key is evicted first once the set is full.
type SeenSet struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	order   *list.List
}

type entry struct {
	key       string
	expiresAt time.Time
}

func NewSeenSet(maxSize int, ttl time.Duration) *SeenSet {
	if maxSize < 1 {
		maxSize = 1
	}
	return &SeenSet{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Seen reports whether key is present and not expired.
func (s *SeenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}
	if s.now().After(elem.Value.(*entry).expiresAt) {
		s.remove(elem)
		return false
	}
	s.order.MoveToFront(elem)
	return true
}

// Mark adds key, refreshing its expiry when already present.
func (s *SeenSet) Mark(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{key: key, expiresAt: s.now().Add(s.ttl)}
	if elem, ok := s.items[key]; ok {
		elem.Value = e
		s.order.MoveToFront(elem)
		return
	}
	s.items[key] = s.order.PushFront(e)
	if s.order.Len() > s.maxSize {
		s.remove(s.order.Back())
	}
}

// Forget removes key.
func (s *SeenSet) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[key]; ok {
		s.remove(elem)
	}
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *SeenSet) remove(elem *list.Element) {
	delete(s.items, elem.Value.(*entry).key)
	s.order.Remove(elem)
}
