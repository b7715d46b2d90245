package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the intended ledger semantics:
// - per-employee serialization means concurrent records never share a stale base balance
// - refund side effects are safe under duplicate delivery via durable idempotency
//
// Full DB integration tests should be added in an environment that can run MySQL.

type fakeLedger struct {
	muByEmployee map[int]*sync.Mutex
	mu           sync.Mutex
	chains       map[int][]models.Point
	aggregate    map[int]decimal.Decimal
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		muByEmployee: map[int]*sync.Mutex{},
		chains:       map[int][]models.Point{},
		aggregate:    map[int]decimal.Decimal{},
	}
}

func (f *fakeLedger) record(employeeId int, delta decimal.Decimal) {
	// Serialize per employee (AcquireEmployeePostingLock).
	f.mu.Lock()
	em := f.muByEmployee[employeeId]
	if em == nil {
		em = &sync.Mutex{}
		f.muByEmployee[employeeId] = em
	}
	f.mu.Unlock()

	em.Lock()
	defer em.Unlock()

	f.mu.Lock()
	chain := f.chains[employeeId]
	balance := f.aggregate[employeeId]
	f.mu.Unlock()

	point := models.Point{
		EmployeeId:   employeeId,
		Seq:          len(chain) + 1,
		Delta:        delta,
		Kind:         models.KindForDelta(delta),
		BalanceAfter: balance.Add(delta),
	}

	f.mu.Lock()
	f.chains[employeeId] = append(chain, point)
	f.aggregate[employeeId] = point.BalanceAfter
	f.mu.Unlock()
}

func TestConcurrentRecords_NeverShareAStaleBase(t *testing.T) {
	for run := 0; run < 100; run++ {
		f := newFakeLedger()
		var wg sync.WaitGroup

		const writers = 50
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.record(1, decimal.NewFromInt(1))
			}()
		}
		wg.Wait()

		chain := f.chains[1]
		if len(chain) != writers {
			t.Fatalf("run=%d expected %d rows, got %d", run, writers, len(chain))
		}
		// seq must be dense 1..N and every balance must chain off its
		// predecessor: two children of the same stale base would collide.
		seen := map[int]bool{}
		for _, p := range chain {
			if seen[p.Seq] {
				t.Fatalf("run=%d duplicate seq %d", run, p.Seq)
			}
			seen[p.Seq] = true
		}
		if !chainIsConsistent(decimal.Zero, chain) {
			t.Fatalf("run=%d chain inconsistent under concurrency", run)
		}
		if !f.aggregate[1].Equal(chain[len(chain)-1].BalanceAfter) {
			t.Fatalf("run=%d aggregate %s != last balance %s", run, f.aggregate[1], chain[len(chain)-1].BalanceAfter)
		}
	}
}

func TestConcurrentRecords_OtherEmployeesUntouched(t *testing.T) {
	f := newFakeLedger()
	f.record(2, decimal.NewFromInt(40))

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.record(1, decimal.NewFromInt(2))
		}()
	}
	wg.Wait()

	if !f.aggregate[2].Equal(decimal.NewFromInt(40)) {
		t.Fatalf("employee 2 aggregate changed: %s", f.aggregate[2])
	}
	if len(f.chains[2]) != 1 {
		t.Fatalf("employee 2 chain changed: %d rows", len(f.chains[2]))
	}
}

func TestRecord_RejectsZeroDelta(t *testing.T) {
	l := &PointsLedger{}

	_, err := l.Record(context.Background(), 1, decimal.Zero, "no-op", 1)
	if !errors.Is(err, utils.ErrorInvalidInput) {
		t.Fatalf("expected ErrorInvalidInput for zero delta, got %v", err)
	}

	_, err = l.Record(context.Background(), 1, decimal.NewFromInt(5), "", 1)
	if !errors.Is(err, utils.ErrorInvalidInput) {
		t.Fatalf("expected ErrorInvalidInput for empty reason, got %v", err)
	}
}

func TestAmend_RejectsZeroDelta(t *testing.T) {
	l := &PointsLedger{}

	_, err := l.Amend(context.Background(), 1, decimal.Zero, "still nothing")
	if !errors.Is(err, utils.ErrorInvalidInput) {
		t.Fatalf("expected ErrorInvalidInput for zero delta, got %v", err)
	}
}

type fakeRefunder struct {
	mu      sync.Mutex
	seen    map[string]bool
	refunds int
}

func (r *fakeRefunder) refundOnce(appraisalId string, fn func()) {
	// Deduplicate (models.IdempotencyKey on appraisal-refund).
	r.mu.Lock()
	if r.seen[appraisalId] {
		r.mu.Unlock()
		return
	}
	r.seen[appraisalId] = true
	r.mu.Unlock()

	fn()

	r.mu.Lock()
	r.refunds++
	r.mu.Unlock()
}

func TestDuplicateRejection_RefundsOnce(t *testing.T) {
	r := &fakeRefunder{seen: map[string]bool{}}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Manager rejects, then admin rejects the same appraisal.
			r.refundOnce("41", func() {})
			r.refundOnce("41", func() {})
		}()
	}
	wg.Wait()

	if r.refunds != 1 {
		t.Fatalf("expected exactly 1 refund, got %d", r.refunds)
	}
}
