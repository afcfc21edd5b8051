package optab

import "testing"

func count(t Table, op Op) int {
	n := 0
	for _, o := range t {
		if o == op {
			n++
		}
	}
	return n
}

func TestBuildFillsRemainderWithGet(t *testing.T) {
	tbl := Build(Percentages{Set: 10, Del: 5})
	if got := count(tbl, Get); got != 85 {
		t.Fatalf("GET slots = %d, want 85", got)
	}
	if got := count(tbl, Set); got != 10 {
		t.Fatalf("SET slots = %d, want 10", got)
	}
	if got := count(tbl, Del); got != 5 {
		t.Fatalf("DEL slots = %d, want 5", got)
	}
}

func TestBuildOrderingIsConsecutive(t *testing.T) {
	tbl := Build(Percentages{Set: 3, Del: 2})
	want := []Op{Set, Set, Set, Del, Del}
	for i, op := range want {
		if tbl[i] != op {
			t.Fatalf("slot %d = %v, want %v", i, tbl[i], op)
		}
	}
	for i := 5; i < slots; i++ {
		if tbl[i] != Get {
			t.Fatalf("slot %d = %v, want GET", i, tbl[i])
		}
	}
}

func TestBuildOverflowIsSilentlyTruncated(t *testing.T) {
	tbl := Build(Percentages{
		Set:     60,
		Del:     60,
		LPush:   60,
		LPop:    60,
		HSet:    60,
		HGet:    60,
		HGetAll: 60,
		SwapIn:  60,
	})

	if got := count(tbl, Get); got != 0 {
		t.Fatalf("GET slots = %d, want 0 once overflow fills every slot", got)
	}
	if got := count(tbl, SwapIn); got != 0 {
		t.Fatalf("SWAPIN slots = %d, want 0: it is enumerated last and should be entirely crowded out", got)
	}
	if got := count(tbl, Set); got != 60 {
		t.Fatalf("SET slots = %d, want 60: it is enumerated first and should be unaffected by later overflow", got)
	}
}

func TestIdleTableFillsEverySlotWithIdle(t *testing.T) {
	tbl := IdleTable()
	if got := count(tbl, Idle); got != slots {
		t.Fatalf("IDLE slots = %d, want %d", got, slots)
	}
}

func TestPickWrapsBucket(t *testing.T) {
	tbl := Build(Percentages{Set: 1})
	if got := tbl.Pick(0); got != Set {
		t.Fatalf("Pick(0) = %v, want SET", got)
	}
	if got := tbl.Pick(100); got != Set {
		t.Fatalf("Pick(100) = %v, want SET (bucket should wrap)", got)
	}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{
		Get: "GET", Set: "SET", Del: "DEL", LPush: "LPUSH", LPop: "LPOP",
		HSet: "HSET", HGet: "HGET", HGetAll: "HGETALL", SwapIn: "SWAPIN", Idle: "IDLE",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Fatalf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
}
