package deferredlist

import "testing"

func intEq(a, b int) bool { return a == b }

func collect(l *List[int]) []int {
	var out []int
	l.Each(func(v int) { out = append(out, v) })
	return out
}

func TestUnlockedAddRemove(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Add(2)
	l.Add(3)
	if got := collect(l); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
	l.Remove(2, intEq)
	if got := collect(l); !equalInts(got, []int{1, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestLockedMutationDeferred(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Add(2)
	l.Add(3)

	l.Lock()
	// Iteration during the locked scope must see only what was valid at
	// lock time, minus anything marked Remove during the scope.
	l.Remove(2, intEq)
	l.Add(4)
	if got := collect(l); !equalInts(got, []int{1, 3}) {
		t.Fatalf("mid-lock view = %v, want [1 3]", got)
	}
	l.Unlock(nil)

	if got := collect(l); !equalInts(got, []int{1, 3, 4}) {
		t.Fatalf("post-unlock = %v, want [1 3 4]", got)
	}
}

func TestNestedLocks(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Lock()
	l.Lock()
	l.Add(2)
	l.Unlock(nil)
	if got := collect(l); !equalInts(got, []int{1}) {
		t.Fatalf("still locked, got %v", got)
	}
	l.Unlock(nil)
	if got := collect(l); !equalInts(got, []int{1, 2}) {
		t.Fatalf("got %v", got)
	}
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Unlock(nil)
	if got := collect(l); !equalInts(got, []int{1}) {
		t.Fatalf("got %v", got)
	}
}

func TestClearDeferred(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Add(2)
	l.Lock()
	l.Clear()
	if got := collect(l); len(got) != 0 {
		t.Fatalf("clear should hide entries immediately, got %v", got)
	}
	l.Unlock(nil)
	if got := collect(l); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestRemoveIndexOutOfRange(t *testing.T) {
	l := New[int]()
	l.Add(1)
	err := l.RemoveIndex(5)
	if err == nil {
		t.Fatal("expected InvalidIndexError")
	}
	if _, ok := err.(*InvalidIndexError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
