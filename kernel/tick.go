package kernel

// Tick is the kernel's monotonic time unit: a wrap-safe 32-bit counter
// advanced by the port's hardware timer driver, in a driver-defined unit
// (typically 1us-1ms per tick). See spec §4.1.
type Tick uint32

// Duration is a signed tick delta, with a reserved sentinel meaning
// "infinity / not scheduled".
type Duration int32

// BadDuration is the sentinel Duration meaning infinity / not scheduled.
const BadDuration Duration = -1

// IsInfinite reports whether d is the BadDuration sentinel.
func (d Duration) IsInfinite() bool { return d == BadDuration }

// TimeUserHeadroom bounds the half of the modular tick space that "before"
// comparisons trust. Keeping a headroom below 1<<31 means a timeout whose
// absolute deadline was computed as now+d, for any non-negative d a caller
// can actually construct, is never misjudged as "in the past" due to wrap.
const TimeUserHeadroom Tick = (1 << 31) - (1 << 16)

// TimeHardHeadroom is the maximum permissible slack between a timeout's
// expiration and the tick value at which expire_due is guaranteed to have
// fired it (spec §5, ordering guarantees).
const TimeHardHeadroom Tick = 16

// Before reports whether a happens strictly before b in modular tick order:
// (b-a) mod 2^32 lies in [1, TimeUserHeadroom].
func Before(a, b Tick) bool {
	delta := b - a
	return delta >= 1 && delta <= TimeUserHeadroom
}

// BeforeEq reports whether a happens before or at the same tick as b.
func BeforeEq(a, b Tick) bool {
	return a == b || Before(a, b)
}

// AddDuration computes t+d under modular arithmetic. d must not be the
// BadDuration sentinel; callers that might hold an infinite delay must check
// Duration.IsInfinite first.
func AddDuration(t Tick, d Duration) Tick {
	return Tick(int64(t) + int64(d))
}

// Sub returns the modular distance (b-a), i.e. how many ticks from a until
// b. No clamping is applied; the result is meaningful as a forward distance
// only when b is not more than TimeUserHeadroom ticks after a.
func Sub(a, b Tick) Tick {
	return b - a
}
