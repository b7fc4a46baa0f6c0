package engine

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestDedupSorted(t *testing.T) {
	got := dedupSorted([]int64{5, 1, 3, 1, 5, 2})
	want := []int64{1, 2, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupSorted() = %v, want %v", got, want)
	}
}

func TestLockManagerSameParentSerializes(t *testing.T) {
	lm := newLockManager()

	var mu sync.Mutex
	order := make([]int, 0, 2)

	unlock := lm.lockParent(42)
	done := make(chan struct{})
	go func() {
		unlock2 := lm.lockParent(42)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		unlock2()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()

	<-done
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Fatalf("lock order = %v, want [1 2] (second locker should block until first unlocks)", order)
	}
}

func TestLockManagerParentsLocksAllAndUnlocksAll(t *testing.T) {
	lm := newLockManager()
	unlock := lm.lockParents([]int64{3, 1, 2, 1})

	acquired := make(chan struct{})
	go func() {
		u := lm.lockParent(1)
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lockParent(1) acquired while lockParents still holds it")
	case <-time.After(10 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lockParent(1) never acquired after lockParents released")
	}
}
