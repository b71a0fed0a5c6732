package kernel

// InterruptNum identifies one of a configuration-fixed set of interrupt
// lines (spec component D). Line numbers are dense, starting at 0.
type InterruptNum int

// InterruptPriority is a signed interrupt priority; lower values are more
// urgent. See spec §4.4.
type InterruptPriority int16

// DefaultNumInterruptLines matches the hosted port's historical default.
const DefaultNumInterruptLines = 1024

// DispatchLine is the line reserved for scheduling a dispatch: pending it
// requests a call into the task-dispatch routine (spec §4.4, "one
// distinguished line is reserved as the dispatch interrupt").
const DispatchLine InterruptNum = DefaultNumInterruptLines - 1

// DispatchPriority is the (lowest-urgency) priority given to DispatchLine by
// default; it only runs once every interrupt that actually did work has
// been serviced.
const DispatchPriority InterruptPriority = 1 << 14

// InterruptHandler runs under CPU Lock, with the handler's line's pended
// bit already cleared, as the kernel's reaction to that line becoming
// pending for delivery.
type InterruptHandler func(tok *CPULockToken)

type interruptLine struct {
	priority InterruptPriority
	enable   bool
	pended   bool
	start    InterruptHandler
}

// InterruptController models the abstract interrupt-line array a port binds
// to real hardware (spec component D): per-line priority, enable, and
// pended bits, plus a managed priority range within which lines may invoke
// kernel primitives. It deliberately does not touch any real interrupt
// controller register; that programming is out of scope (spec §1).
type InterruptController struct {
	lines        []interruptLine
	managedLo    InterruptPriority
	managedHi    InterruptPriority
}

// NewInterruptController allocates numLines lines, with the managed range
// [managedLo, managedHi] (inclusive, lower value = higher priority). With
// fewer than DispatchLine+1 lines the controller has no dispatch line.
func NewInterruptController(numLines int, managedLo, managedHi InterruptPriority) *InterruptController {
	if numLines <= 0 {
		numLines = DefaultNumInterruptLines
	}
	ic := &InterruptController{
		lines:     make([]interruptLine, numLines),
		managedLo: managedLo,
		managedHi: managedHi,
	}
	if ic.valid(DispatchLine) {
		ic.lines[DispatchLine].priority = DispatchPriority
	}
	return ic
}

func (ic *InterruptController) valid(line InterruptNum) bool {
	return line >= 0 && int(line) < len(ic.lines)
}

func (ic *InterruptController) inManagedRange(p InterruptPriority) bool {
	return p >= ic.managedLo && p <= ic.managedHi
}

// SetHandler installs line's handler, invoked by Dispatch when the line is
// delivered. Returns [ErrBadParam] for an out-of-range line.
func (ic *InterruptController) SetHandler(line InterruptNum, h InterruptHandler) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].start = h
	return nil
}

// SetPriority sets line's priority. Returns [ErrBadParam] for an
// out-of-range line.
func (ic *InterruptController) SetPriority(line InterruptNum, priority InterruptPriority) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].priority = priority
	return nil
}

// Enable marks line as accepting delivery. Returns [ErrBadParam] for an
// out-of-range line.
func (ic *InterruptController) Enable(line InterruptNum) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].enable = true
	return nil
}

// Disable marks line as not accepting delivery; a previously pended bit is
// left set so delivery resumes once re-enabled. Returns [ErrBadParam] for
// an out-of-range line.
func (ic *InterruptController) Disable(line InterruptNum) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].enable = false
	return nil
}

// Pend latches line as requested (edge-triggered). Returns [ErrBadParam]
// for an out-of-range line.
func (ic *InterruptController) Pend(line InterruptNum) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].pended = true
	return nil
}

// Clear un-latches line, as if it had been delivered without running its
// handler. Returns [ErrBadParam] for an out-of-range line.
func (ic *InterruptController) Clear(line InterruptNum) error {
	if !ic.valid(line) {
		return badParam("line", line)
	}
	ic.lines[line].pended = false
	return nil
}

// IsPending reports whether line is pending for delivery: enabled, pended,
// and within the managed range. Returns [ErrBadParam] for an out-of-range
// line.
func (ic *InterruptController) IsPending(line InterruptNum) (bool, error) {
	if !ic.valid(line) {
		return false, badParam("line", line)
	}
	l := &ic.lines[line]
	return l.enable && l.pended && ic.inManagedRange(l.priority), nil
}

// highestPending scans enabled managed lines ordered by priority (lower
// value wins; ties break on line index) and returns the most urgent pending
// one, or -1 if none are pending.
func (ic *InterruptController) highestPending() InterruptNum {
	best := InterruptNum(-1)
	var bestPriority InterruptPriority
	for i := range ic.lines {
		l := &ic.lines[i]
		if !(l.enable && l.pended && ic.inManagedRange(l.priority)) {
			continue
		}
		if best < 0 || l.priority < bestPriority {
			best = InterruptNum(i)
			bestPriority = l.priority
		}
	}
	return best
}

// Dispatch delivers the single highest-priority pending managed line, if
// any: it clears pended (edge-triggered semantics) and invokes its handler
// under the caller's CPU Lock. It reports whether a line was delivered.
// Requires CPU Lock.
func (ic *InterruptController) Dispatch(tok *CPULockToken) bool {
	line := ic.highestPending()
	if line < 0 {
		return false
	}
	l := &ic.lines[line]
	l.pended = false
	if l.start != nil {
		l.start(tok)
	}
	return true
}
