package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestLease(t *testing.T) (*Lease, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	l, err := New("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("New: %v", err)
	}
	return l, mr
}

func TestAcquireFreeKey(t *testing.T) {
	l, mr := setupTestLease(t)
	defer mr.Close()
	defer l.Close()

	if !l.Acquire(context.Background(), "earn_apy", time.Minute) {
		t.Error("Acquire should succeed on a free key")
	}
	if got, _ := mr.Get(prefix + "earn_apy"); got != l.owner {
		t.Errorf("lease owner = %q, want %q", got, l.owner)
	}
}

func TestAcquireHeldByOther(t *testing.T) {
	l, mr := setupTestLease(t)
	defer mr.Close()
	defer l.Close()

	mr.Set(prefix+"tax_rate", "other-replica")
	if l.Acquire(context.Background(), "tax_rate", time.Minute) {
		t.Error("Acquire should fail while another owner holds the lease")
	}
}

func TestLeaseExpires(t *testing.T) {
	l, mr := setupTestLease(t)
	defer mr.Close()
	defer l.Close()

	ctx := context.Background()
	mr.Set(prefix+"staker", "other-replica")
	mr.SetTTL(prefix+"staker", time.Second)
	mr.FastForward(2 * time.Second)

	if !l.Acquire(ctx, "staker", time.Minute) {
		t.Error("Acquire should succeed after the previous lease expired")
	}
}

func TestReleaseOwnLeaseOnly(t *testing.T) {
	l, mr := setupTestLease(t)
	defer mr.Close()
	defer l.Close()

	ctx := context.Background()
	if !l.Acquire(ctx, "balance", time.Minute) {
		t.Fatal("Acquire failed")
	}
	l.Release(ctx, "balance")
	if mr.Exists(prefix + "balance") {
		t.Error("own lease should be released")
	}

	mr.Set(prefix+"balance", "other-replica")
	l.Release(ctx, "balance")
	if !mr.Exists(prefix + "balance") {
		t.Error("another owner's lease must not be released")
	}
}

func TestAcquireFailOpen(t *testing.T) {
	l, mr := setupTestLease(t)
	defer l.Close()

	// Stop Redis to simulate failure
	mr.Close()

	if !l.Acquire(context.Background(), "any", time.Minute) {
		t.Error("Acquire should return true (fail-open) when Redis is down")
	}
}
