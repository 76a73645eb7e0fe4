package ids

import (
	"sync"
	"testing"
)

func TestGenerateUnique(t *testing.T) {
	const n = 10000
	seen := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		id := Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d at iteration %d", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateMonotonic(t *testing.T) {
	prev := Generate()
	for i := 0; i < 1000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("ids not increasing: %d then %d", prev, id)
		}
		prev = id
	}
}

func TestGenerateConcurrent(t *testing.T) {
	const workers, per = 8, 500
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*per)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			local := make([]int64, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()
}

func TestGenerateString(t *testing.T) {
	s := GenerateString()
	if s == "" {
		t.Fatal("empty id")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-decimal id %q", s)
		}
	}
}

func TestSetNodeIDOutOfRange(t *testing.T) {
	SetNodeID(4096)
	if defaultGen.nodeID != 1 {
		t.Fatalf("out-of-range node id not clamped: %d", defaultGen.nodeID)
	}
	SetNodeID(100)
	if defaultGen.nodeID != 100 {
		t.Fatalf("node id not applied: %d", defaultGen.nodeID)
	}
}
