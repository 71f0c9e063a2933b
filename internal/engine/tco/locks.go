// internal/engine/tco/locks.go
package tco

import "sync"

// projectLocks serializes recomputation per project. Recalculation is
// overwrite-based, so two interleaved recomputes for one project could leave
// the rerank reading a mixed-generation set of summaries. Locks are
// refcounted and evicted once no recompute holds or waits for them, so the
// map stays proportional to in-flight projects rather than all projects ever
// seen.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*projectLock
}

type projectLock struct {
	sync.Mutex
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*projectLock)}
}

// lock blocks until the project's lock is held and returns the matching
// unlock. The returned func must be called exactly once.
func (p *projectLocks) lock(projectID string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &projectLock{}
		p.locks[projectID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, projectID)
		}
		p.mu.Unlock()
	}
}
