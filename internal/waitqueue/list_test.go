package waitqueue

import "testing"

func TestPushBackOrder(t *testing.T) {
	var l List
	a := l.PushBack("a")
	b := l.PushBack("b")
	c := l.PushBack("c")

	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
	if l.Front() != a {
		t.Fatalf("front = %v, want a", l.Front().Value)
	}
	_ = b
	_ = c
}

func TestPopFrontFIFO(t *testing.T) {
	var l List
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)

	var got []int
	for n := l.PopFront(); n != nil; n = l.PopFront() {
		got = append(got, n.Value.(int))
	}
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if !l.Empty() {
		t.Fatalf("list should be empty")
	}
}

func TestRemoveMiddle(t *testing.T) {
	var l List
	a := l.PushBack("a")
	b := l.PushBack("b")
	c := l.PushBack("c")

	l.Remove(b)
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}
	var vals []string
	l.Each(func(n *Node) bool {
		vals = append(vals, n.Value.(string))
		return true
	})
	if len(vals) != 2 || vals[0] != "a" || vals[1] != "c" {
		t.Fatalf("vals = %v", vals)
	}
	_ = a
	_ = c
}

func TestRemoveIdempotent(t *testing.T) {
	var l List
	a := l.PushBack("a")
	l.Remove(a)
	l.Remove(a) // must not panic or corrupt state
	if !l.Empty() {
		t.Fatalf("list should be empty")
	}
}

func TestRemoveFromWrongListIsNoop(t *testing.T) {
	var l1, l2 List
	a := l1.PushBack("a")
	l2.Remove(a)
	if l1.Len() != 1 {
		t.Fatalf("removing a foreign node must not mutate l1")
	}
}
