// Package optab builds the fixed 100-slot bucket table the scheduler samples
// to decide each request's operation kind.
package optab

// Op identifies an operation kind a client may issue.
type Op int

const (
	Get Op = iota
	Set
	Del
	LPush
	LPop
	HSet
	HGet
	HGetAll
	SwapIn
	Idle
)

func (o Op) String() string {
	switch o {
	case Get:
		return "GET"
	case Set:
		return "SET"
	case Del:
		return "DEL"
	case LPush:
		return "LPUSH"
	case LPop:
		return "LPOP"
	case HSet:
		return "HSET"
	case HGet:
		return "HGET"
	case HGetAll:
		return "HGETALL"
	case SwapIn:
		return "SWAPIN"
	case Idle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// slots is the fixed bucket count the table is sampled over.
const slots = 100

// Percentages configures how many of the table's 100 slots each non-GET
// op claims. Whatever is left over, after GET is filled first and the
// others are carved out in this field order, stays GET.
type Percentages struct {
	Set     int
	Del     int
	LPush   int
	LPop    int
	HSet    int
	HGet    int
	HGetAll int
	SwapIn  int
}

// Table is the fixed 100-slot bucket-to-op mapping.
type Table [slots]Op

// Build fills every slot with Get, then overwrites consecutive slots with
// Set, Del, LPush, LPop, HSet, HGet, HGetAll, SwapIn in that order, using the
// configured percentage of slots for each. If the percentages sum to more
// than 100, the overflow is silently discarded; callers that want to
// reject it should sum Percentages themselves before calling Build.
func Build(p Percentages) Table {
	var t Table
	for i := range t {
		t[i] = Get
	}

	cursor := 0
	fill := func(op Op, count int) {
		for i := 0; i < count && cursor < slots; i++ {
			t[cursor] = op
			cursor++
		}
	}

	fill(Set, p.Set)
	fill(Del, p.Del)
	fill(LPush, p.LPush)
	fill(LPop, p.LPop)
	fill(HSet, p.HSet)
	fill(HGet, p.HGet)
	fill(HGetAll, p.HGetAll)
	fill(SwapIn, p.SwapIn)

	return t
}

// IdleTable returns a table filled entirely with Idle, used when the bench
// is run in idle mode (connections held open, no requests issued).
func IdleTable() Table {
	var t Table
	for i := range t {
		t[i] = Idle
	}
	return t
}

// Pick returns the op assigned to bucket (a value in [0,100)). Callers
// typically compute bucket as rng.Uint64() % 100.
func (t Table) Pick(bucket int) Op {
	return t[bucket%slots]
}
