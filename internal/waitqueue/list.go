// Package waitqueue implements an intrusive, node-based doubly linked FIFO
// list used to park pending channel operations. Unlike a slice-backed queue,
// a Node can be unlinked from an arbitrary position in O(1) without a scan,
// which is what lets a single clause be removed the moment it wins a Choose
// or is abandoned by a timeout.
package waitqueue

// Node is one link in a List. The zero Node is not usable; obtain one from
// List.PushBack. Value is caller-owned and opaque to the list.
type Node struct {
	Value      any
	prev, next *Node
	list       *List
}

// List is a doubly linked FIFO queue. The zero value is an empty, ready to
// use list. A List is not safe for concurrent use; callers (the channel
// package) serialize access with their own lock.
type List struct {
	head, tail *Node
	size       int
}

// Len reports the number of nodes currently linked into l.
func (l *List) Len() int {
	return l.size
}

// Empty reports whether l has no linked nodes.
func (l *List) Empty() bool {
	return l.size == 0
}

// PushBack links a new node holding v onto the tail of l and returns it.
func (l *List) PushBack(v any) *Node {
	n := &Node{Value: v, list: l}
	if l.tail == nil {
		l.head = n
		l.tail = n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.size++
	return n
}

// Front returns the node at the head of l, or nil if l is empty. The node
// remains linked; callers that intend to consume it must call Remove.
func (l *List) Front() *Node {
	return l.head
}

// PopFront unlinks and returns the node at the head of l, or nil if empty.
func (l *List) PopFront() *Node {
	n := l.head
	if n == nil {
		return nil
	}
	l.Remove(n)
	return n
}

// Remove unlinks n from l. It is a no-op if n is nil or already unlinked
// (from l or any other list), making it safe to call from two different
// wakeup paths racing to claim the same clause.
func (l *List) Remove(n *Node) {
	if n == nil || n.list != l {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	n.list = nil
	l.size--
}

// Each calls fn for every node in l, front to back, stopping early if fn
// returns false. fn must not mutate l.
func (l *List) Each(fn func(n *Node) bool) {
	for n := l.head; n != nil; n = n.next {
		if !fn(n) {
			return
		}
	}
}
