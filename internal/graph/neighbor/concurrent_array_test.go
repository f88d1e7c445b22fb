package neighbor

import "testing"

// Scenario 4 (spec §8): duplicate rejection with distinct scores.
func TestConcurrentArrayDuplicateRejection(t *testing.T) {
	c := NewConcurrentArray(5)
	c.InsertSorted(1, 10)
	c.InsertSorted(2, 9)
	c.InsertSorted(3, 8)
	c.InsertSorted(1, 10)
	c.InsertSorted(3, 8)

	wantNodes := []Node{1, 2, 3}
	wantScores := []Score{10, 9, 8}
	if c.Size() != len(wantNodes) {
		t.Fatalf("size = %d, want %d", c.Size(), len(wantNodes))
	}
	for i := range wantNodes {
		n, _ := c.NodeAt(i)
		s, _ := c.ScoreAt(i)
		if n != wantNodes[i] || s != wantScores[i] {
			t.Fatalf("index %d = (%d,%v), want (%d,%v)", i, n, s, wantNodes[i], wantScores[i])
		}
	}
}

// Scenario 5 (spec §8): duplicate rejection with equal scores across the run.
func TestConcurrentArrayDuplicateRejectionEqualScores(t *testing.T) {
	c := NewConcurrentArray(5)
	c.InsertSorted(1, 10)
	c.InsertSorted(2, 10)
	c.InsertSorted(3, 10)
	c.InsertSorted(1, 10)
	c.InsertSorted(3, 10)

	if c.Size() != 3 {
		t.Fatalf("size = %d, want 3", c.Size())
	}
	wantNodes := []Node{1, 2, 3}
	for i, w := range wantNodes {
		n, _ := c.NodeAt(i)
		s, _ := c.ScoreAt(i)
		if n != w || s != 10 {
			t.Fatalf("index %d = (%d,%v), want (%d,10)", i, n, s, w)
		}
	}
}

func TestConcurrentArrayCloneIsIndependent(t *testing.T) {
	c := NewConcurrentArray(2)
	c.InsertSorted(1, 1)
	clone := c.CloneConcurrent()
	clone.InsertSorted(2, 2)
	if c.Size() != 1 {
		t.Fatalf("original mutated: size = %d, want 1", c.Size())
	}
	if clone.Size() != 2 {
		t.Fatalf("clone size = %d, want 2", clone.Size())
	}
}
