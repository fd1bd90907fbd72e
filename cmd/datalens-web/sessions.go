package main

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OriginalDaemon/datalens/dashboard"
)

const sessionCookie = "datalens_session"

type session struct {
	store    *dashboard.Store
	lastSeen time.Time
}

// sessions gives every browser its own dashboard. The state is in memory
// only; a restart starts every browser from scratch.
type sessions struct {
	api  dashboard.API
	idle time.Duration
	ctx  context.Context

	mu    sync.Mutex
	byID  map[string]*session
	clock func() time.Time
}

func newSessions(ctx context.Context, api dashboard.API, idle time.Duration) *sessions {
	return &sessions{
		api:   api,
		idle:  idle,
		ctx:   ctx,
		byID:  make(map[string]*session),
		clock: time.Now,
	}
}

// get returns the caller's dashboard, starting one (and setting the cookie)
// for a new or expired session
func (s *sessions) get(c *gin.Context) *dashboard.Store {
	id, _ := c.Cookie(sessionCookie)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if sess, ok := s.byID[id]; ok {
		sess.lastSeen = now
		return sess.store
	}

	id = uuid.NewString()
	store := dashboard.NewStore(s.api, log.Default())
	store.Start(s.ctx)
	s.byID[id] = &session{store: store, lastSeen: now}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	log.Printf("Started dashboard session %s", id)
	return store
}

// sweep stops sessions idle longer than the configured limit
func (s *sessions) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) > s.idle {
			sess.store.Stop()
			delete(s.byID, id)
			removed++
		}
	}
	return removed
}

// run sweeps periodically until ctx ends
func (s *sessions) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				log.Printf("Expired %d idle dashboard sessions", n)
			}
		}
	}
}

func (s *sessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// stopAll stops every session
func (s *sessions) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byID {
		sess.store.Stop()
		delete(s.byID, id)
	}
}
