package planner

import (
	"container/heap"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// PendingOrderSet holds flight plans that are not yet active, ordered by
// origin window start (earliest first). Plans with equal start times keep
// their announcement order. Each session id has at most one pending entry.
//
// PendingOrderSet is not safe for concurrent use; it is owned by the tick
// loop.
type PendingOrderSet struct {
	items     planHeap
	bySession map[string]*pendingItem
	seq       uint64
}

type pendingItem struct {
	plan  *model.FlightPlan
	seq   uint64
	index int
}

// NewPendingOrderSet returns an empty set.
func NewPendingOrderSet() *PendingOrderSet {
	return &PendingOrderSet{
		bySession: make(map[string]*pendingItem),
	}
}

// Len returns the number of pending plans.
func (p *PendingOrderSet) Len() int { return len(p.items) }

// Peek returns the plan with the earliest origin window start without
// removing it.
func (p *PendingOrderSet) Peek() *model.FlightPlan {
	if len(p.items) == 0 {
		return nil
	}
	return p.items[0].plan
}

// Pop removes and returns the plan with the earliest origin window start.
func (p *PendingOrderSet) Pop() *model.FlightPlan {
	if len(p.items) == 0 {
		return nil
	}
	it := heap.Pop(&p.items).(*pendingItem)
	delete(p.bySession, it.plan.SessionID)
	return it.plan
}

// Contains reports whether a plan for sessionID is pending.
func (p *PendingOrderSet) Contains(sessionID string) bool {
	_, ok := p.bySession[sessionID]
	return ok
}

// Upsert inserts plan, or replaces the pending plan with the same session id
// in place. It reports whether an existing entry was replaced. A replaced
// plan keeps its original announcement order among equal start times.
func (p *PendingOrderSet) Upsert(plan *model.FlightPlan) (replaced bool) {
	if plan == nil {
		return false
	}
	if it, ok := p.bySession[plan.SessionID]; ok {
		it.plan = plan
		heap.Fix(&p.items, it.index)
		return true
	}

	p.seq++
	it := &pendingItem{plan: plan, seq: p.seq}
	heap.Push(&p.items, it)
	p.bySession[plan.SessionID] = it
	return false
}

// planHeap implements heap.Interface as an explicit ascending min-heap.
type planHeap []*pendingItem

func (h planHeap) Len() int { return len(h) }

func (h planHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.plan.OriginWindowStart.Equal(b.plan.OriginWindowStart) {
		return a.plan.OriginWindowStart.Before(b.plan.OriginWindowStart)
	}
	return a.seq < b.seq
}

func (h planHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *planHeap) Push(x any) {
	it := x.(*pendingItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *planHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}
