package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// =============================================================================
// MemoryQueue Tests
// =============================================================================

func TestMemoryQueue_New(t *testing.T) {
	q := NewMemoryQueue(0)
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}
	if _, err := q.Pop(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Pop() error = %v, want ErrQueueEmpty", err)
	}
}

func TestMemoryQueue_PushSetsTimestamp(t *testing.T) {
	q := NewMemoryQueue(0)
	item := &Item{URL: "https://example.com/"}
	if err := q.Push(item); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if item.Timestamp.IsZero() {
		t.Error("Push() should stamp the item")
	}
}

func TestMemoryQueue_Duplicates(t *testing.T) {
	q := NewMemoryQueue(0)
	q.Push(&Item{URL: "https://example.com/a"})
	q.Push(&Item{URL: "https://example.com/a", Depth: 1})

	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if !q.Contains("https://example.com/a") {
		t.Error("Contains() = false for queued URL")
	}

	q.Pop()
	if q.Contains("https://example.com/a") {
		t.Error("Contains() = true after Pop")
	}
}

func TestMemoryQueue_Capacity(t *testing.T) {
	q := NewMemoryQueue(2)
	q.Push(&Item{URL: "https://example.com/1"})
	q.Push(&Item{URL: "https://example.com/2"})

	if err := q.Push(&Item{URL: "https://example.com/3"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Push() error = %v, want ErrQueueFull", err)
	}
}

func TestMemoryQueue_Close(t *testing.T) {
	q := NewMemoryQueue(0)
	q.Push(&Item{URL: "https://example.com/"})
	q.Close()

	if err := q.Push(&Item{URL: "https://example.com/x"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Push() after Close error = %v, want ErrQueueClosed", err)
	}
	if _, err := q.Pop(); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Pop() after Close error = %v, want ErrQueueClosed", err)
	}
}

func TestMemoryQueue_Concurrent(t *testing.T) {
	q := NewMemoryQueue(0)
	var wg sync.WaitGroup

	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(&Item{URL: fmt.Sprintf("https://example.com/%d/%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", q.Len())
	}
}

// =============================================================================
// Ordering Tests
// =============================================================================

func TestMemoryQueue_BreadthFirst(t *testing.T) {
	q := NewMemoryQueue(0)
	q.Push(&Item{URL: "d2", Depth: 2})
	q.Push(&Item{URL: "d0", Depth: 0})
	q.Push(&Item{URL: "d1", Depth: 1})

	for _, want := range []string{"d0", "d1", "d2"} {
		item, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if item.URL != want {
			t.Errorf("Pop() = %s, want %s", item.URL, want)
		}
	}
}

func TestMemoryQueue_InsertionOrderWithinDepth(t *testing.T) {
	q := NewMemoryQueue(0)
	urls := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, u := range urls {
		q.Push(&Item{URL: u, Depth: 1})
	}
	q.Push(&Item{URL: "root", Depth: 0})

	want := append([]string{"root"}, urls...)
	for i, w := range want {
		item, _ := q.Pop()
		if item.URL != w {
			t.Errorf("Pop() #%d = %s, want %s", i, item.URL, w)
		}
	}
}
