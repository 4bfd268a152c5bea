package orderbook

type Color uint8

const (
	red   Color = 0
	black Color = 1
)

type node struct {
	offer  *Offer
	color  Color
	left   *node
	right  *node
	parent *node
}

// RBTree is a red-black tree of offers in index order
// (price ascending, quality descending, id ascending).
type RBTree struct {
	root *node
	nil  *node // sentinel (black)
	size int
}

// NewRBTree constructs an empty tree with a black sentinel.
func NewRBTree() *RBTree {
	nilNode := &node{color: black}
	return &RBTree{
		root: nilNode,
		nil:  nilNode,
		size: 0,
	}
}

func (t *RBTree) Size() int { return t.size }

func (t *RBTree) Contains(o *Offer) bool {
	return t.searchNode(o) != t.nil
}

// Insert adds o. It returns false if o is already present.
func (t *RBTree) Insert(o *Offer) bool {
	y := t.nil
	x := t.root
	c := 0
	for x != t.nil {
		y = x
		c = compare(o, x.offer)
		switch {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			return false
		}
	}

	z := &node{
		offer:  o,
		color:  red,
		left:   t.nil,
		right:  t.nil,
		parent: y,
	}

	if y == t.nil {
		t.root = z
	} else if c < 0 {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return true
}

// Delete removes o. It returns false if o is absent.
func (t *RBTree) Delete(o *Offer) bool {
	z := t.searchNode(o)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *RBTree) Min() *Offer {
	n := t.minNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.offer
}

func (t *RBTree) Max() *Offer {
	n := t.maxNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.offer
}

// Higher returns the first offer strictly after o. o need not be present.
func (t *RBTree) Higher(o *Offer) *Offer {
	n := t.root
	succ := t.nil
	for n != t.nil {
		if compare(o, n.offer) < 0 {
			succ = n
			n = n.left
		} else {
			n = n.right
		}
	}
	if succ == t.nil {
		return nil
	}
	return succ.offer
}

// Lower returns the last offer strictly before o. o need not be present.
func (t *RBTree) Lower(o *Offer) *Offer {
	n := t.root
	pred := t.nil
	for n != t.nil {
		if compare(o, n.offer) > 0 {
			pred = n
			n = n.right
		} else {
			n = n.left
		}
	}
	if pred == t.nil {
		return nil
	}
	return pred.offer
}

// Floor returns the last offer whose price is at or below price.
func (t *RBTree) Floor(price float64) *Offer {
	n := t.root
	pred := t.nil
	for n != t.nil {
		if n.offer.price <= price {
			pred = n
			n = n.right
		} else {
			n = n.left
		}
	}
	if pred == t.nil {
		return nil
	}
	return pred.offer
}

func (t *RBTree) ForEachAscending(fn func(*Offer) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n.offer) {
			return
		}
	}
}

// Slice collects all offers in ascending order.
func (t *RBTree) Slice() []*Offer {
	out := make([]*Offer, 0, t.size)
	t.ForEachAscending(func(o *Offer) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Clear resets the tree.
func (t *RBTree) Clear() {
	t.root = t.nil
	t.size = 0
}

/******************** Internal helpers ********************/

func (t *RBTree) searchNode(o *Offer) *node {
	n := t.root
	for n != t.nil {
		switch c := compare(o, n.offer); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			if n.offer != o {
				return t.nil
			}
			return n
		}
	}
	return t.nil
}

func (t *RBTree) minNode(n *node) *node {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *RBTree) maxNode(n *node) *node {
	if n == t.nil {
		return t.nil
	}
	for n.right != t.nil {
		n = n.right
	}
	return n
}

func (t *RBTree) next(n *node) *node {
	if n == nil || n == t.nil {
		return t.nil
	}
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *RBTree) leftRotate(x *node) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *RBTree) rightRotate(y *node) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *RBTree) insertFixup(z *node) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *RBTree) transplant(u, v *node) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *RBTree) deleteNode(z *node) {
	y := z
	yOrigColor := y.color
	var x *node

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
	// the sentinel's parent is scratch space for deleteFixup
	t.nil.parent = nil
}

func (t *RBTree) deleteFixup(x *node) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}

// blackHeight validates the red-black properties and returns the black height
// of the tree, or -1 if a property is broken.
func (t *RBTree) blackHeight(n *node) int {
	if n == t.nil {
		return 1
	}
	if n.color == red && (n.left.color == red || n.right.color == red) {
		return -1
	}
	if n.left != t.nil && compare(n.left.offer, n.offer) >= 0 {
		return -1
	}
	if n.right != t.nil && compare(n.right.offer, n.offer) <= 0 {
		return -1
	}
	l, r := t.blackHeight(n.left), t.blackHeight(n.right)
	if l < 0 || r < 0 || l != r {
		return -1
	}
	if n.color == black {
		return l + 1
	}
	return l
}
