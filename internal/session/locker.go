package session

import "sync"

// Locker serializes work per user. Different users proceed in parallel.
type Locker struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates a Locker.
func NewLocker() *Locker {
	return &Locker{users: make(map[int64]*userLock)}
}

// Lock blocks until userID is free and returns the matching unlock.
func (l *Locker) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLock{}
		l.users[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.users, userID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of users currently holding or waiting on a lock.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}
