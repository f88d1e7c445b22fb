package neighbor

import "testing"

func TestArrayAddInOrder(t *testing.T) {
	a := NewArray(2)
	if err := a.AddInOrder(1, 10); err != nil {
		t.Fatalf("AddInOrder(1,10): %v", err)
	}
	if err := a.AddInOrder(2, 9); err != nil {
		t.Fatalf("AddInOrder(2,9): %v", err)
	}
	if err := a.AddInOrder(3, 9.5); err != ErrOrderingViolation {
		t.Fatalf("expected ErrOrderingViolation, got %v", err)
	}
	if a.Size() != 2 {
		t.Fatalf("size = %d, want 2", a.Size())
	}
}

func TestArrayInsertSortedOrdersDescending(t *testing.T) {
	a := NewArray(4)
	a.InsertSorted(1, 5)
	a.InsertSorted(2, 9)
	a.InsertSorted(3, 1)
	a.InsertSorted(4, 7)

	wantNodes := []Node{2, 4, 1, 3}
	wantScores := []Score{9, 7, 5, 1}
	for i := range wantNodes {
		n, _ := a.NodeAt(i)
		s, _ := a.ScoreAt(i)
		if n != wantNodes[i] || s != wantScores[i] {
			t.Fatalf("index %d = (%d,%v), want (%d,%v)", i, n, s, wantNodes[i], wantScores[i])
		}
	}
}

func TestArrayInsertSortedTieStable(t *testing.T) {
	a := NewArray(4)
	a.InsertSorted(1, 10)
	a.InsertSorted(2, 10)
	a.InsertSorted(3, 10)

	want := []Node{1, 2, 3}
	for i, w := range want {
		n, _ := a.NodeAt(i)
		if n != w {
			t.Fatalf("index %d = %d, want %d (tie run should preserve insertion order)", i, n, w)
		}
	}
}

func TestArrayBoundsErrors(t *testing.T) {
	a := NewArray(1)
	if _, err := a.NodeAt(0); err != ErrBounds {
		t.Fatalf("NodeAt(0) on empty array: %v", err)
	}
	a.InsertSorted(1, 1)
	if _, err := a.NodeAt(1); err != ErrBounds {
		t.Fatalf("NodeAt(1) out of range: %v", err)
	}
	if err := a.RemoveIndex(5); err != ErrBounds {
		t.Fatalf("RemoveIndex(5): %v", err)
	}
}

func TestArrayRemoveIndex(t *testing.T) {
	a := NewArray(4)
	a.InsertSorted(1, 3)
	a.InsertSorted(2, 2)
	a.InsertSorted(3, 1)
	if err := a.RemoveIndex(1); err != nil {
		t.Fatalf("RemoveIndex: %v", err)
	}
	if a.Size() != 2 {
		t.Fatalf("size after remove = %d, want 2", a.Size())
	}
	n0, _ := a.NodeAt(0)
	n1, _ := a.NodeAt(1)
	if n0 != 1 || n1 != 3 {
		t.Fatalf("after remove: (%d,%d), want (1,3)", n0, n1)
	}
}

func TestArrayGrowsBeyondInitialCapacity(t *testing.T) {
	a := NewArray(1)
	for i := Node(0); i < 50; i++ {
		a.InsertSorted(i, Score(-int(i)))
	}
	if a.Size() != 50 {
		t.Fatalf("size = %d, want 50", a.Size())
	}
	for i := 0; i+1 < a.Size(); i++ {
		si, _ := a.ScoreAt(i)
		sj, _ := a.ScoreAt(i + 1)
		if si < sj {
			t.Fatalf("not descending at %d: %v < %v", i, si, sj)
		}
	}
}

func TestArrayContains(t *testing.T) {
	a := NewArray(2)
	a.InsertSorted(7, 1)
	if !a.Contains(7) {
		t.Fatal("expected Contains(7) true")
	}
	if a.Contains(8) {
		t.Fatal("expected Contains(8) false")
	}
}
