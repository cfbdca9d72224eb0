package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestNeedsRefreshUnknownKey(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	if !c.NeedsRefresh("borrow_limit", time.Minute) {
		t.Error("NeedsRefresh should be true for a key that was never fetched")
	}
}

func TestNeedsRefreshAfterComplete(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(clock)

	if !c.BeginFetch("tax_rate") {
		t.Fatal("BeginFetch should succeed on a new key")
	}
	c.Complete("tax_rate", "0.001", nil)

	if c.NeedsRefresh("tax_rate", 10*time.Second) {
		t.Error("NeedsRefresh should be false right after a successful Complete")
	}

	clock.Advance(9 * time.Second)
	if c.NeedsRefresh("tax_rate", 10*time.Second) {
		t.Error("NeedsRefresh should be false before the interval elapsed")
	}

	clock.Advance(time.Second)
	if !c.NeedsRefresh("tax_rate", 10*time.Second) {
		t.Error("NeedsRefresh should be true once now >= updated + interval")
	}
}

func TestNeedsRefreshAfterError(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.BeginFetch("earn_apy")
	c.Complete("earn_apy", nil, errors.New("boom"))

	if !c.NeedsRefresh("earn_apy", time.Hour) {
		t.Error("an error entry should always need a refresh")
	}

	e, ok := c.Read("earn_apy")
	if !ok {
		t.Fatal("Read should find the entry")
	}
	if e.State != Resolved || e.Err == nil || e.Value != nil {
		t.Errorf("entry = %+v, want resolved error without value", e)
	}
}

func TestPendingDoesNotNeedRefresh(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.BeginFetch("staker")
	if c.NeedsRefresh("staker", 0) {
		t.Error("a pending key should not need another fetch")
	}
}

func TestBeginFetchExclusive(t *testing.T) {
	c := New(clockwork.NewFakeClock())

	const callers = 64
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if c.BeginFetch("anchor_protocol_txs_staking") {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("BeginFetch winners = %d, want 1", wins)
	}
	if c.BeginFetch("anchor_protocol_txs_staking") {
		t.Error("BeginFetch should be denied until Complete")
	}

	c.Complete("anchor_protocol_txs_staking", 1, nil)
	if !c.BeginFetch("anchor_protocol_txs_staking") {
		t.Error("BeginFetch should succeed after Complete")
	}
}

func TestPendingKeepsPreviousValue(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.BeginFetch("balance")
	c.Complete("balance", 42, nil)

	c.BeginFetch("balance")
	e, _ := c.Read("balance")
	if e.State != Pending {
		t.Errorf("State = %v, want pending", e.State)
	}
	if e.Value != 42 {
		t.Errorf("Value = %v, want previous value 42", e.Value)
	}
}

func TestAbort(t *testing.T) {
	c := New(clockwork.NewFakeClock())

	c.BeginFetch("fresh")
	c.Abort("fresh")
	e, _ := c.Read("fresh")
	if e.State != Idle {
		t.Errorf("aborted new key State = %v, want idle", e.State)
	}
	if !c.NeedsRefresh("fresh", time.Hour) {
		t.Error("aborted new key should still need a refresh")
	}

	c.BeginFetch("known")
	c.Complete("known", "v", nil)
	c.BeginFetch("known")
	c.Abort("known")
	e, _ = c.Read("known")
	if e.State != Resolved || e.Value != "v" {
		t.Errorf("aborted known key = %+v, want resolved with previous value", e)
	}
}

func TestUpdatedAtMonotonic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(clock)

	c.Complete("k", 1, nil)
	first, _ := c.Read("k")

	clock.Advance(time.Second)
	c.Complete("k", 2, nil)
	second, _ := c.Read("k")

	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt did not increase: %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestSnapshotSorted(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	for _, k := range []string{"staker", "balance", "earn_apy"} {
		c.Complete(k, k, nil)
	}
	snap := c.Snapshot()
	want := []string{"balance", "earn_apy", "staker"}
	if len(snap) != len(want) {
		t.Fatalf("len(Snapshot) = %d, want %d", len(snap), len(want))
	}
	for i, k := range want {
		if snap[i].Key != k {
			t.Errorf("Snapshot[%d].Key = %q, want %q", i, snap[i].Key, k)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Pending, "pending"},
		{Resolved, "resolved"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
