package gridindex

import (
	"slices"
)

// kdNode is a node in a 3-D KD-tree over grid cells. Cells are referenced by
// flattened index into the owning Index's point table.
type kdNode struct {
	cell  int
	left  *kdNode
	right *kdNode
}

// buildKDTree constructs a balanced KD-tree from a slice of cell indices.
// The tree cycles the splitting axis (x, y, z) at each level. Sorting is by
// coordinate then cell index, so equal coordinates split identically on
// every build and queries stay deterministic.
func buildKDTree(pts []point, cells []int, depth int) *kdNode {
	if len(cells) == 0 {
		return nil
	}
	if len(cells) == 1 {
		return &kdNode{cell: cells[0]}
	}

	axis := depth % 3

	slices.SortFunc(cells, func(a, b int) int {
		if pts[a][axis] < pts[b][axis] {
			return -1
		}
		if pts[a][axis] > pts[b][axis] {
			return 1
		}
		return a - b
	})

	median := len(cells) / 2

	return &kdNode{
		cell:  cells[median],
		left:  buildKDTree(pts, cells[:median], depth+1),
		right: buildKDTree(pts, cells[median+1:], depth+1),
	}
}

// neighbourHeap accumulates the k best candidates ordered by distance in
// metres, ties broken by lower cell index. Ordering on the metre value the
// caller will observe, not on the raw squared embedding distance, keeps the
// tie-break honest: geometrically equidistant cells can land ulps apart in
// the embedding while converting to exactly equal metres. k is small
// (typically 1 or 4), so an insertion-sorted slice beats a real heap.
type neighbourHeap struct {
	k int
	// conv maps a squared embedding distance to the caller-visible metres.
	conv  func(distSq float64) float64
	cands []kdCandidate
}

type kdCandidate struct {
	cell int
	dist float64 // metres, as reported to the caller
	// distSq is kept in embedding units for the subtree pruning bound.
	distSq float64
}

func (h *neighbourHeap) full() bool { return len(h.cands) == h.k }

// worst returns the pruning bound: the largest squared embedding distance
// still held. The metre ordering can differ from the distSq ordering by
// ulps, so the maximum is scanned rather than read off the last slot.
func (h *neighbourHeap) worst() float64 {
	if !h.full() {
		return inf
	}
	worst := h.cands[0].distSq
	for _, c := range h.cands[1:] {
		if c.distSq > worst {
			worst = c.distSq
		}
	}
	return worst
}

func (h *neighbourHeap) offer(cell int, distSq float64) {
	dist := h.conv(distSq)
	pos := len(h.cands)
	for pos > 0 {
		prev := h.cands[pos-1]
		if prev.dist < dist || (prev.dist == dist && prev.cell < cell) {
			break
		}
		pos--
	}
	if pos == h.k {
		return
	}
	if h.full() {
		h.cands = h.cands[:h.k-1]
	}
	h.cands = slices.Insert(h.cands, pos, kdCandidate{cell: cell, dist: dist, distSq: distSq})
}

// search walks the tree collecting the k nearest cells to q that satisfy
// accept. Subtrees are pruned only on geometry, never on the constraint:
// a masked-out node's children may still hold valid candidates.
func (n *kdNode) search(pts []point, q point, depth int, accept func(cell int) bool, h *neighbourHeap) {
	if n == nil {
		return
	}

	if accept == nil || accept(n.cell) {
		h.offer(n.cell, distSq(pts[n.cell], q))
	}

	axis := depth % 3
	delta := q[axis] - pts[n.cell][axis]

	near, far := n.left, n.right
	if delta > 0 {
		near, far = n.right, n.left
	}

	near.search(pts, q, depth+1, accept, h)
	// The far subtree can hold a closer point when the splitting plane is
	// within the current bound. <= keeps equidistant cells reachable so the
	// lowest-index tie-break sees them.
	if delta*delta <= h.worst() {
		far.search(pts, q, depth+1, accept, h)
	}
}

func distSq(a, b point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}
