package kernel

// HunkID identifies a sub-range carved out of a [HunkPool] at configuration
// time. IDs are dense, in carve order, starting at 0.
type HunkID int

// HunkInitFunc initializes a freshly carved hunk's backing bytes at boot,
// before any task runs. It is the only place a hunk's contents are
// programmatically set; after boot, hunks are opaque to the kernel.
type HunkInitFunc func(b []byte)

type hunkEntry struct {
	offset, length int
	init           HunkInitFunc
}

// HunkPool is a zero-initialized byte buffer of configuration-fixed length,
// carved at configuration time into typed sub-ranges the kernel treats as
// opaque offset+length pairs (spec §3 Hunk Pool). There is no runtime
// allocation: every hunk is carved before the owning System boots, and the
// pool never grows or frees afterward.
type HunkPool struct {
	buf     []byte
	hunks   []hunkEntry
	next    int
	carving bool // false once the owning System has booted
}

// NewHunkPool allocates a zero-initialized buffer of the given length.
func NewHunkPool(length int) *HunkPool {
	return &HunkPool{buf: make([]byte, length), carving: true}
}

// Carve reserves the next length bytes of the pool as a new hunk, optionally
// run through init at boot. Returns [ErrQueueOverflow] if the pool has no
// room left, or [ErrBadObjectState] if the pool has already booted (carving
// is configuration-time only, per the "no runtime allocation" invariant;
// the pool itself, not the caller's context, is what has moved on).
func (p *HunkPool) Carve(length int, init HunkInitFunc) (HunkID, error) {
	if !p.carving {
		return 0, ErrBadObjectState
	}
	if p.next+length > len(p.buf) {
		return 0, ErrQueueOverflow
	}
	id := HunkID(len(p.hunks))
	p.hunks = append(p.hunks, hunkEntry{offset: p.next, length: length, init: init})
	p.next += length
	return id, nil
}

// Bytes returns the backing slice for id. Returns [ErrBadID] if id is out of
// range.
func (p *HunkPool) Bytes(id HunkID) ([]byte, error) {
	if id < 0 || int(id) >= len(p.hunks) {
		return nil, badID("hunk", int(id))
	}
	h := &p.hunks[id]
	return p.buf[h.offset : h.offset+h.length], nil
}

// boot stops further carving and runs every hunk's init function, in carve
// order, over its own sub-range. Called once, from [System.Boot].
func (p *HunkPool) boot() {
	p.carving = false
	for _, h := range p.hunks {
		if h.init != nil {
			h.init(p.buf[h.offset : h.offset+h.length])
		}
	}
}
