package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type userLock struct {
	mu   sync.Mutex
	refs int
}

// PerUser serializes handling per sender: updates from one user run one at a time,
// different users run concurrently. Locks are dropped once no update holds them.
func PerUser() tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		locks = make(map[int64]*userLock)
	)
	acquire := func(id int64) *userLock {
		mu.Lock()
		l, ok := locks[id]
		if !ok {
			l = &userLock{}
			locks[id] = l
		}
		l.refs++
		mu.Unlock()
		l.mu.Lock()
		return l
	}
	release := func(id int64, l *userLock) {
		l.mu.Unlock()
		mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(locks, id)
		}
		mu.Unlock()
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil {
				return next(c)
			}
			l := acquire(u.ID)
			defer release(u.ID, l)
			return next(c)
		}
	}
}
