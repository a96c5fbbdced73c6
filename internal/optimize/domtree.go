// Copyright (c) 2024 The Coil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package optimize

import "coil/internal/ir"

// domTree is the iterative (O(n^2)) dominator computation adapted from
// the teacher's compile/ssa/domtree.go, generalized from *ssa.Block to
// *ir.Block.
type domTree struct {
	fn  *ir.Function
	dom map[*ir.Block][]*ir.Block
}

func buildDomTree(fn *ir.Function) *domTree {
	dt := &domTree{fn: fn, dom: make(map[*ir.Block][]*ir.Block)}
	entry := fn.Entry()
	if entry == nil {
		return dt
	}
	all := fn.Blocks
	dt.dom[entry] = []*ir.Block{entry}
	for _, b := range all {
		if b == entry {
			continue
		}
		dt.dom[b] = append([]*ir.Block{}, all...)
	}
	changed := true
	for changed {
		changed = false
		for _, b := range all {
			if b == entry {
				continue
			}
			var newDom []*ir.Block
			for i, p := range b.Preds {
				if i == 0 {
					newDom = append(newDom, dt.dom[p]...)
				} else {
					newDom = intersect(newDom, dt.dom[p])
				}
			}
			newDom = appendUnique(newDom, b)
			if !sameSet(newDom, dt.dom[b]) {
				dt.dom[b] = newDom
				changed = true
			}
		}
	}
	return dt
}

func intersect(a, b []*ir.Block) []*ir.Block {
	var out []*ir.Block
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func appendUnique(list []*ir.Block, b *ir.Block) []*ir.Block {
	for _, x := range list {
		if x == b {
			return list
		}
	}
	return append(list, b)
}

func sameSet(a, b []*ir.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// dominates reports whether a dominates b (a dom b).
func (dt *domTree) dominates(a, b *ir.Block) bool {
	for _, d := range dt.dom[b] {
		if d == a {
			return true
		}
	}
	return false
}

// backedges finds every (tail -> header) edge where header dominates
// tail — the defining property of a natural loop.
func (dt *domTree) backedges() map[*ir.Block][]*ir.Block {
	edges := make(map[*ir.Block][]*ir.Block)
	for _, b := range dt.fn.Blocks {
		for _, succ := range b.Succs {
			if dt.dominates(succ, b) {
				edges[succ] = append(edges[succ], b)
			}
		}
	}
	return edges
}

// naturalLoopBody walks predecessors backward from each tail up to (and
// including) header, collecting every block in the loop body.
func naturalLoopBody(header *ir.Block, tails []*ir.Block) map[*ir.Block]bool {
	body := map[*ir.Block]bool{header: true}
	var work []*ir.Block
	for _, t := range tails {
		if !body[t] {
			body[t] = true
			work = append(work, t)
		}
	}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range b.Preds {
			if !body[p] {
				body[p] = true
				work = append(work, p)
			}
		}
	}
	return body
}
