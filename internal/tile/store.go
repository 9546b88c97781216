package tile

import (
	"image"
	"sync"
)

// State is the residency state of a tile.
type State uint8

const (
	// Missing tiles have never been requested, or were evicted.
	Missing State = iota
	// Loading tiles have a fetch in flight.
	Loading
	// Resident tiles have rendered pixels available.
	Resident
	// Failed tiles could not be fetched. A new request retries them.
	Failed
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Loading:
		return "loading"
	case Resident:
		return "resident"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type entry struct {
	state State
	img   *image.RGBA
	err   error
	node  *lruNode
}

// Store tracks tile residency and keeps the rendered pixels of resident
// tiles. Resident tiles beyond the capacity are evicted least recently used
// first; tiles in the keep set passed to Pin are never evicted.
//
// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	entries  map[Coord]*entry
	lru      lruList
	capacity int
	pinned   map[Coord]int
}

// NewStore creates a store holding at most capacity resident tiles.
// A capacity of 0 means unlimited.
func NewStore(capacity int) *Store {
	return &Store{
		entries:  make(map[Coord]*entry),
		capacity: capacity,
		pinned:   make(map[Coord]int),
	}
}

// State returns the residency state of c.
func (s *Store) State(c Coord) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[c]; ok {
		return e.state
	}
	return Missing
}

// Image returns the rendered pixels of a resident tile.
func (s *Store) Image(c Coord) (*image.RGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c]
	if !ok || e.state != Resident {
		return nil, false
	}
	s.lru.moveToFront(e.node)
	return e.img, true
}

// Err returns the fetch error of a failed tile.
func (s *Store) Err(c Coord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[c]; ok && e.state == Failed {
		return e.err
	}
	return nil
}

// BeginLoad marks c as loading. It returns false if c is already loading or
// resident, in which case the caller must not start another fetch.
func (s *Store) BeginLoad(c Coord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c]
	if ok && (e.state == Loading || e.state == Resident) {
		return false
	}
	if !ok {
		e = &entry{}
		s.entries[c] = e
	}
	e.state = Loading
	e.err = nil
	return true
}

// SetResident stores the rendered pixels of c and marks it resident.
// It returns the tiles evicted to stay within capacity.
func (s *Store) SetResident(c Coord, img *image.RGBA) []Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c]
	if !ok {
		e = &entry{}
		s.entries[c] = e
	}
	e.state = Resident
	e.img = img
	e.err = nil
	if e.node == nil {
		e.node = s.lru.pushFront(c)
	} else {
		s.lru.moveToFront(e.node)
	}
	return s.evictLocked()
}

// SetFailed marks c as failed with err.
func (s *Store) SetFailed(c Coord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c]
	if !ok {
		e = &entry{}
		s.entries[c] = e
	}
	if e.node != nil {
		s.lru.remove(e.node)
		e.node = nil
	}
	e.state = Failed
	e.img = nil
	e.err = err
}

// Pin protects c from eviction until a matching Unpin.
func (s *Store) Pin(c Coord) {
	s.mu.Lock()
	s.pinned[c]++
	s.mu.Unlock()
}

// Unpin releases one Pin of c.
func (s *Store) Unpin(c Coord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned[c] <= 1 {
		delete(s.pinned, c)
		return
	}
	s.pinned[c]--
}

// Resident returns the coordinates of every resident tile, most recent first.
func (s *Store) Resident() []Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Coord, 0, s.lru.len)
	for n := s.lru.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Len returns the number of resident tiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.len
}

// evictLocked drops least recently used, unpinned resident tiles until the
// store is within capacity. Caller must hold s.mu.
func (s *Store) evictLocked() []Coord {
	if s.capacity <= 0 {
		return nil
	}
	var evicted []Coord
	for s.lru.len > s.capacity {
		node, ok := s.lru.oldest(func(c Coord) bool { return s.pinned[c] > 0 })
		if !ok {
			break
		}
		s.lru.remove(node)
		delete(s.entries, node.key)
		evicted = append(evicted, node.key)
	}
	return evicted
}
