package debugger

import (
	"iter"
	"slices"
)

// Breakpoint stops execution at the first word of a source line.
type Breakpoint struct {
	Num    int // Breakpoint number, from 1.
	LineNo int // Source line number.
}

// Breakpoints is the ordered list of breakpoints.
// Numbers are never reused within the life of the list.
type Breakpoints struct {
	list  []Breakpoint
	count int
}

// Add a breakpoint on a line. ok is false if the line already has one.
func (bps *Breakpoints) Add(lineno int) (num int, ok bool) {
	if bps.Has(lineno) {
		return
	}

	bps.count++
	num = bps.count
	bps.list = append(bps.list, Breakpoint{Num: num, LineNo: lineno})
	ok = true
	return
}

// Remove a breakpoint by number.
func (bps *Breakpoints) Remove(num int) (ok bool) {
	index := slices.IndexFunc(bps.list, func(bp Breakpoint) bool { return bp.Num == num })
	if index < 0 {
		return
	}

	bps.list = slices.Delete(bps.list, index, index+1)
	ok = true
	return
}

// Get the breakpoint on a line.
func (bps *Breakpoints) Get(lineno int) (bp Breakpoint, ok bool) {
	for _, bp = range bps.list {
		if bp.LineNo == lineno {
			ok = true
			return
		}
	}

	bp = Breakpoint{}
	return
}

// Has returns true if the line has a breakpoint.
func (bps *Breakpoints) Has(lineno int) bool {
	_, ok := bps.Get(lineno)
	return ok
}

// Len returns the number of breakpoints.
func (bps *Breakpoints) Len() int {
	return len(bps.list)
}

// All iterates over the breakpoints in the order they were added.
func (bps *Breakpoints) All() iter.Seq[Breakpoint] {
	return slices.Values(bps.list)
}
