package service

import (
	"sync/atomic"
	"time"
)

// State — что показывает админ-порт: аптайм процесса и время последнего
// live-бара. Состояние моста не дублируем, его спрашивают у шлюза напрямую.
type State struct {
	startedAt time.Time

	lastBarUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) TouchBar(t time.Time) { s.lastBarUnix.Store(t.Unix()) }
func (s *State) LastBar() time.Time {
	u := s.lastBarUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
