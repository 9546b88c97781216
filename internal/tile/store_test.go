package tile

import (
	"errors"
	"image"
	"sync"
	"testing"
)

func tileImage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(0)
	c := Coord{1, 1, 2}

	if got := s.State(c); got != Missing {
		t.Fatalf("State = %v, want %v", got, Missing)
	}
	if !s.BeginLoad(c) {
		t.Fatal("BeginLoad on missing tile = false, want true")
	}
	if s.BeginLoad(c) {
		t.Error("BeginLoad on loading tile = true, want false")
	}
	if got := s.State(c); got != Loading {
		t.Errorf("State = %v, want %v", got, Loading)
	}
	if _, ok := s.Image(c); ok {
		t.Error("Image of loading tile reported ok")
	}

	img := tileImage()
	s.SetResident(c, img)
	if got := s.State(c); got != Resident {
		t.Errorf("State = %v, want %v", got, Resident)
	}
	got, ok := s.Image(c)
	if !ok || got != img {
		t.Errorf("Image = %p, %v, want %p, true", got, ok, img)
	}
	if s.BeginLoad(c) {
		t.Error("BeginLoad on resident tile = true, want false")
	}
}

func TestStoreFailedRetry(t *testing.T) {
	s := NewStore(0)
	c := Coord{0, 0, 1}
	errFetch := errors.New("boom")

	s.BeginLoad(c)
	s.SetFailed(c, errFetch)
	if got := s.State(c); got != Failed {
		t.Fatalf("State = %v, want %v", got, Failed)
	}
	if err := s.Err(c); !errors.Is(err, errFetch) {
		t.Errorf("Err = %v, want %v", err, errFetch)
	}
	if !s.BeginLoad(c) {
		t.Error("BeginLoad on failed tile = false, want true")
	}
	if err := s.Err(c); err != nil {
		t.Errorf("Err after retry = %v, want nil", err)
	}
}

func TestStoreEviction(t *testing.T) {
	s := NewStore(2)
	a, b, c := Coord{0, 0, 1}, Coord{1, 0, 1}, Coord{0, 1, 1}

	s.SetResident(a, tileImage())
	s.SetResident(b, tileImage())
	s.Image(a) // a becomes most recent

	evicted := s.SetResident(c, tileImage())
	if len(evicted) != 1 || evicted[0] != b {
		t.Fatalf("evicted = %v, want [%v]", evicted, b)
	}
	if got := s.State(b); got != Missing {
		t.Errorf("State(b) = %v, want %v", got, Missing)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	want := []Coord{c, a}
	got := s.Resident()
	if len(got) != len(want) {
		t.Fatalf("Resident = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Resident[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStorePinnedNotEvicted(t *testing.T) {
	s := NewStore(1)
	a, b := Coord{0, 0, 1}, Coord{1, 0, 1}

	s.SetResident(a, tileImage())
	s.Pin(a)
	evicted := s.SetResident(b, tileImage())
	if len(evicted) != 1 || evicted[0] != b {
		t.Errorf("evicted = %v, want [%v]", evicted, b)
	}
	if got := s.State(a); got != Resident {
		t.Errorf("State(a) = %v, want %v", got, Resident)
	}

	s.Unpin(a)
	s.SetResident(b, tileImage())
	if got := s.State(a); got != Missing {
		t.Errorf("State(a) after unpin = %v, want %v", got, Missing)
	}
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore(8)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := Coord{X: i % 4, Y: i / 4, Z: 2}
			if s.BeginLoad(c) {
				s.SetResident(c, tileImage())
			}
			s.Image(c)
		}(i)
	}
	wg.Wait()
	if got := s.Len(); got > 8 {
		t.Errorf("Len = %d, want <= 8", got)
	}
}
