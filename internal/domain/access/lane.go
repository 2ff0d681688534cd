package access

import "sync"

// laneSet provides one mutex per patient address. All mutations touching a
// patient's authorization and ledger state are serialized through that
// patient's lane; operations for different patients proceed in parallel.
// Lane mutexes live for the life of the process.
type laneSet struct {
	mu    sync.Mutex
	lanes map[string]*sync.Mutex
}

func newLaneSet() *laneSet {
	return &laneSet{lanes: make(map[string]*sync.Mutex)}
}

// lock acquires the patient's lane and returns the release func.
func (l *laneSet) lock(patient string) func() {
	l.mu.Lock()
	m, ok := l.lanes[patient]
	if !ok {
		m = &sync.Mutex{}
		l.lanes[patient] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
