// Package network holds the activity dependency graph of a single project.
//
// Activities are kept in a flat map keyed by id; predecessor and successor
// relations are id sets resolved by lookup. Every mutating method validates
// first and only then changes the graph, so a rejected edit leaves it exactly
// as it was.
package network

import (
	"container/heap"
	"sort"

	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
)

// Node is one activity as seen by the graph.
type Node struct {
	ID           uint64
	Code         string
	Duration     int
	Predecessors []uint64
}

type idSet map[uint64]struct{}

func (s idSet) sorted() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type vertex struct {
	code     string
	duration int
}

// Graph is a project's activity-on-node dependency network.
//
// It is not safe for concurrent mutation; callers serialize per project.
type Graph struct {
	vertices map[uint64]vertex
	preds    map[uint64]idSet
	succs    map[uint64]idSet
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[uint64]vertex),
		preds:    make(map[uint64]idSet),
		succs:    make(map[uint64]idSet),
	}
}

// Load builds a graph from persisted nodes.
//
// Referential integrity, self references and negative durations are enforced.
// Acyclicity is not: rows read back from storage are trusted to have passed
// the mutation guards, and TopologicalOrder reports a cycle if they did not.
func Load(nodes []Node) (*Graph, error) {
	g := New()
	for _, n := range nodes {
		if _, exists := g.vertices[n.ID]; exists {
			return nil, apierrors.Validationf("duplicate activity id %d", n.ID)
		}
		if n.Duration < 0 {
			return nil, apierrors.Validationf("activity %d: duration_days must be >= 0, got %d", n.ID, n.Duration)
		}
		g.insert(n.ID, n.Code, n.Duration)
	}
	for _, n := range nodes {
		for _, p := range n.Predecessors {
			if p == n.ID {
				return nil, apierrors.Validationf("activity %d lists itself as a predecessor", n.ID)
			}
			if _, ok := g.vertices[p]; !ok {
				return nil, apierrors.Validationf("activity %d: predecessor %d does not belong to this project", n.ID, p)
			}
			g.link(p, n.ID)
		}
	}
	return g, nil
}

// Len returns the number of activities.
func (g *Graph) Len() int { return len(g.vertices) }

// Has reports whether id is in the graph.
func (g *Graph) Has(id uint64) bool {
	_, ok := g.vertices[id]
	return ok
}

// Node returns the activity with the given id.
func (g *Graph) Node(id uint64) (Node, bool) {
	v, ok := g.vertices[id]
	if !ok {
		return Node{}, false
	}
	return Node{ID: id, Code: v.code, Duration: v.duration, Predecessors: g.preds[id].sorted()}, true
}

// IDs returns all activity ids in ascending order.
func (g *Graph) IDs() []uint64 {
	out := make([]uint64, 0, len(g.vertices))
	for id := range g.vertices {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Duration returns the duration of id, or 0 if it is unknown.
func (g *Graph) Duration(id uint64) int { return g.vertices[id].duration }

// Predecessors returns the predecessor ids of id in ascending order.
func (g *Graph) Predecessors(id uint64) []uint64 { return g.preds[id].sorted() }

// Successors returns the successor ids of id in ascending order.
func (g *Graph) Successors(id uint64) []uint64 { return g.succs[id].sorted() }

// ValidatePredecessors checks a predecessor list for a new activity: every id
// must exist in this project and appear once.
func (g *Graph) ValidatePredecessors(ids []uint64) error {
	seen := make(idSet, len(ids))
	for _, p := range ids {
		if _, ok := g.vertices[p]; !ok {
			return apierrors.Validationf("predecessor %d does not belong to this project", p)
		}
		if _, dup := seen[p]; dup {
			return apierrors.Validationf("predecessor %d listed more than once", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Add inserts a new activity. A fresh node has no successors, so it cannot
// close a cycle.
func (g *Graph) Add(n Node) error {
	if _, exists := g.vertices[n.ID]; exists {
		return apierrors.Validationf("activity %d already exists", n.ID)
	}
	if n.Duration < 0 {
		return apierrors.Validationf("duration_days must be >= 0, got %d", n.Duration)
	}
	if err := g.ValidatePredecessors(n.Predecessors); err != nil {
		return err
	}

	g.insert(n.ID, n.Code, n.Duration)
	for _, p := range n.Predecessors {
		g.link(p, n.ID)
	}
	return nil
}

// SetDuration changes the duration of id.
func (g *Graph) SetDuration(id uint64, duration int) error {
	v, ok := g.vertices[id]
	if !ok {
		return apierrors.NotFoundf("activity %d not found", id)
	}
	if duration < 0 {
		return apierrors.Validationf("duration_days must be >= 0, got %d", duration)
	}
	v.duration = duration
	g.vertices[id] = v
	return nil
}

// SetCode changes the display code of id.
func (g *Graph) SetCode(id uint64, code string) error {
	v, ok := g.vertices[id]
	if !ok {
		return apierrors.NotFoundf("activity %d not found", id)
	}
	v.code = code
	g.vertices[id] = v
	return nil
}

// SetPredecessors replaces the predecessor set of id.
//
// A new edge p -> id closes a cycle exactly when p is already reachable from
// id going forward, so each requested predecessor is checked against the
// forward closure of id. Dropping id's current incoming edges cannot change
// that closure in an acyclic graph.
func (g *Graph) SetPredecessors(id uint64, ids []uint64) error {
	if _, ok := g.vertices[id]; !ok {
		return apierrors.NotFoundf("activity %d not found", id)
	}
	if err := g.checkNewPredecessors(id, ids); err != nil {
		return err
	}

	for p := range g.preds[id] {
		g.unlink(p, id)
	}
	for _, p := range ids {
		g.link(p, id)
	}
	return nil
}

// AddPredecessor adds the single edge pred -> id. Adding an existing edge is
// a no-op.
func (g *Graph) AddPredecessor(id, pred uint64) error {
	if _, ok := g.vertices[id]; !ok {
		return apierrors.NotFoundf("activity %d not found", id)
	}
	if _, exists := g.preds[id][pred]; exists {
		return nil
	}
	if err := g.checkNewPredecessors(id, []uint64{pred}); err != nil {
		return err
	}
	g.link(pred, id)
	return nil
}

// Remove deletes id and strips it from every other activity's predecessor set.
func (g *Graph) Remove(id uint64) error {
	if _, ok := g.vertices[id]; !ok {
		return apierrors.NotFoundf("activity %d not found", id)
	}
	for p := range g.preds[id] {
		g.unlink(p, id)
	}
	for s := range g.succs[id] {
		g.unlink(id, s)
	}
	delete(g.vertices, id)
	delete(g.preds, id)
	delete(g.succs, id)
	return nil
}

// TopologicalOrder returns every activity id in an order consistent with all
// edges, using Kahn's algorithm. Ties are broken by ascending id so the order
// is deterministic.
func (g *Graph) TopologicalOrder() ([]uint64, error) {
	indeg := make(map[uint64]int, len(g.vertices))
	ready := &idHeap{}
	for id := range g.vertices {
		indeg[id] = len(g.preds[id])
		if indeg[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]uint64, 0, len(g.vertices))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(uint64)
		order = append(order, n)
		for s := range g.succs[n] {
			indeg[s]--
			if indeg[s] == 0 {
				heap.Push(ready, s)
			}
		}
	}

	if len(order) != len(g.vertices) {
		stuck := make(idSet)
		for id, d := range indeg {
			if d > 0 {
				stuck[id] = struct{}{}
			}
		}
		return nil, apierrors.Cyclef("dependency cycle among activities %v", stuck.sorted())
	}
	return order, nil
}

// checkNewPredecessors validates ids as the complete new predecessor set of id.
func (g *Graph) checkNewPredecessors(id uint64, ids []uint64) error {
	seen := make(idSet, len(ids))
	for _, p := range ids {
		if p == id {
			return apierrors.Validationf("activity %d cannot be its own predecessor", id)
		}
		if _, ok := g.vertices[p]; !ok {
			return apierrors.Validationf("predecessor %d does not belong to this project", p)
		}
		if _, dup := seen[p]; dup {
			return apierrors.Validationf("predecessor %d listed more than once", p)
		}
		seen[p] = struct{}{}
	}

	reach := g.reachableFrom(id)
	for _, p := range ids {
		if _, ok := reach[p]; ok {
			return apierrors.Cyclef("making %s a predecessor of %s would create a cycle", g.label(p), g.label(id))
		}
	}
	return nil
}

// reachableFrom returns every id reachable from start along successor edges,
// excluding start itself. Iterative so deep chains cannot exhaust the stack.
func (g *Graph) reachableFrom(start uint64) idSet {
	seen := make(idSet)
	stack := []uint64{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for s := range g.succs[n] {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			stack = append(stack, s)
		}
	}
	return seen
}

func (g *Graph) label(id uint64) string {
	if v, ok := g.vertices[id]; ok && v.code != "" {
		return v.code
	}
	return "activity " + formatID(id)
}

func (g *Graph) insert(id uint64, code string, duration int) {
	g.vertices[id] = vertex{code: code, duration: duration}
	g.preds[id] = make(idSet)
	g.succs[id] = make(idSet)
}

func (g *Graph) link(from, to uint64) {
	g.preds[to][from] = struct{}{}
	g.succs[from][to] = struct{}{}
}

func (g *Graph) unlink(from, to uint64) {
	delete(g.preds[to], from)
	delete(g.succs[from], to)
}
