package gc

// markEngine seeds the reachable set from registered roots and the
// mutator's stack range, then transitively scans each discovered block's
// body for further candidate pointers. It is conservative: any word that
// collides with a live base pins that block (spec.md §4.4).
//
// Marking is iterative (an explicit grey worklist) rather than recursive,
// per spec.md §9's note that recursion depth is bounded only by the
// longest pointer chain and an implementation may replace it with a
// worklist as long as the observable surviving set is unchanged. This
// mirrors the teacher's referenceScanQueue linked-list worklist in
// gc_extalloc.go.
type markEngine struct {
	reg *registry
}

func newMarkEngine(reg *registry) *markEngine {
	return &markEngine{reg: reg}
}

// run marks every block transitively reachable from rootValues (the
// current contents of each registered global root slot) and from the
// word-aligned contents of the stack range [stackLow, stackHigh).
func (m *markEngine) run(rootValues []uintptr, stackLow, stackHigh uintptr) {
	var grey []*Allocation

	push := func(candidate uintptr) {
		a := m.reg.lookup(candidate)
		if a == nil || a.Marked {
			return
		}
		a.Marked = true
		grey = append(grey, a)
	}

	for _, v := range rootValues {
		push(v)
	}
	scanWords(stackLow, stackHigh, push)

	for len(grey) > 0 {
		n := len(grey) - 1
		a := grey[n]
		grey = grey[:n]

		bodyEnd := a.Base + alignDown(a.Size, wordSize)
		scanWords(a.Base, bodyEnd, push)
	}
}
