package engine

// Handle is a stable reference to a registered Conn: an index into the
// registry's slab plus the generation the slot held when the Conn was
// registered. A callback that captures a Handle and fires after the Conn
// was torn down (and its slot possibly reused by a new connection) can
// detect the mismatch and no-op instead of touching the wrong Conn.
//
// Client lifecycles are driven entirely by explicit close/replace calls on
// the loop goroutine, so a plain generation counter is sufficient; no
// background scavenging is needed.
type Handle struct {
	index      int
	generation uint64
}

// slot holds one Conn along with the generation last assigned to it. A nil
// conn with generation matching a live Handle means the Conn was released;
// lookups treat that as a miss.
type slot struct {
	conn       *Conn
	generation uint64
	occupied   bool
}

// registry is an arena of Conn slots addressed by generation-checked Handle,
// per the "arena+index preferred" note this codebase follows for callback
// registration: avoids lifetime tangles when a readiness callback fires
// after the Conn was torn down within the same event-loop tick.
type registry struct {
	slots []slot
	free  []int
}

func newRegistry() *registry {
	return &registry{}
}

// Register allocates a slot for conn and returns a Handle identifying it.
func (r *registry) Register(conn *Conn) Handle {
	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx].generation++
		r.slots[idx].conn = conn
		r.slots[idx].occupied = true
		return Handle{index: idx, generation: r.slots[idx].generation}
	}

	idx := len(r.slots)
	r.slots = append(r.slots, slot{conn: conn, generation: 1, occupied: true})
	return Handle{index: idx, generation: 1}
}

// Lookup returns the Conn registered under h, or (nil, false) if h's
// generation is stale (the slot was released and possibly reused).
func (r *registry) Lookup(h Handle) (*Conn, bool) {
	if h.index < 0 || h.index >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil, false
	}
	return s.conn, true
}

// Release frees h's slot for reuse and invalidates every outstanding Handle
// that referenced it. It is a no-op if h is already stale.
func (r *registry) Release(h Handle) {
	if h.index < 0 || h.index >= len(r.slots) {
		return
	}
	s := &r.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return
	}
	s.conn = nil
	s.occupied = false
	r.free = append(r.free, h.index)
}

// Len reports the number of currently occupied slots, i.e. live clients.
func (r *registry) Len() int {
	return len(r.slots) - len(r.free)
}

// Each calls fn once per live Conn. fn must not register or release slots.
func (r *registry) Each(fn func(Handle, *Conn)) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.occupied {
			fn(Handle{index: i, generation: s.generation}, s.conn)
		}
	}
}
