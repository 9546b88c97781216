package tile

// lruNode is a node in the doubly-linked recency list.
type lruNode struct {
	key  Coord
	prev *lruNode
	next *lruNode
}

// lruList orders resident tiles by recency. Head is the most recently used.
// The list is not thread-safe; Store holds its lock while using it.
type lruList struct {
	head *lruNode
	tail *lruNode
	len  int
}

func (l *lruList) pushFront(key Coord) *lruNode {
	node := &lruNode{key: key}
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
	return node
}

func (l *lruList) moveToFront(node *lruNode) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

func (l *lruList) remove(node *lruNode) {
	if node != nil {
		l.unlink(node)
	}
}

// oldest returns the least recently used node whose key skip rejects.
func (l *lruList) oldest(skip func(Coord) bool) (*lruNode, bool) {
	for n := l.tail; n != nil; n = n.prev {
		if !skip(n.key) {
			return n, true
		}
	}
	return nil, false
}

func (l *lruList) unlink(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	l.len--
}
