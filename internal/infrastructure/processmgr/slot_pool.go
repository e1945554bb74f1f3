package processmgr

import "sync"

// slotPool is a non-blocking counting semaphore with explicit ownership:
// every slot is held by a spawn token and releasing an unowned slot panics.
// A capacity of 0 disables the limit.
type slotPool struct {
	mu         sync.Mutex
	maxCap     int64
	acquiredBy map[uint64]struct{}
}

func newSlotPool(max int64) *slotPool {
	if max < 0 {
		max = 0
	}
	return &slotPool{
		maxCap:     max,
		acquiredBy: make(map[uint64]struct{}),
	}
}

// tryAcquire takes a slot for id if one is free.
// Acquiring twice with the same id is a protocol violation.
func (s *slotPool) tryAcquire(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[id]; holds {
		panic("slotPool: id already holds a slot")
	}
	if s.maxCap > 0 && int64(len(s.acquiredBy)) >= s.maxCap {
		return false
	}
	s.acquiredBy[id] = struct{}{}
	return true
}

// release frees the slot owned by id.
func (s *slotPool) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[id]; !holds {
		panic("slotPool: release for non-owner id")
	}
	delete(s.acquiredBy, id)
}

// current returns the number of held slots.
func (s *slotPool) current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.acquiredBy))
}

func (s *slotPool) capacity() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxCap
}
