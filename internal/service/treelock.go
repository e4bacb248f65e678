package service

import "sync"

// TreeLock serializes structural mutations of the forest and ledger writes
// for the whole process. One instance is shared by every service.
type TreeLock struct {
	mu sync.Mutex
}

func NewTreeLock() *TreeLock {
	return &TreeLock{}
}

// Do runs fn while holding the lock.
func (l *TreeLock) Do(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}
