package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/hr_backend/models"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func chainOf(deltas ...int64) []models.Point {
	rows := make([]models.Point, len(deltas))
	for i, d := range deltas {
		rows[i] = models.Point{
			Seq:   i + 1,
			Delta: dec(d),
			Kind:  models.KindForDelta(dec(d)),
		}
	}
	recomputeChain(decimal.Zero, rows)
	return rows
}

func balances(rows []models.Point) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].BalanceAfter.String()
	}
	return out
}

func assertBalances(t *testing.T, rows []models.Point, want ...string) {
	t.Helper()
	got := balances(rows)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("balance[%d]: expected %s, got %s (full chain %v)", i, want[i], got[i], got)
		}
	}
}

func TestRecompute_RunningBalances(t *testing.T) {
	rows := chainOf(10, 5, -3)
	assertBalances(t, rows, "10", "15", "12")

	if !chainIsConsistent(decimal.Zero, rows) {
		t.Fatal("freshly recomputed chain must be consistent")
	}
}

func TestAmend_PropagatesDiffForward(t *testing.T) {
	rows := chainOf(10, 5, -3)

	// Amend the first transaction from 10 to 20: later balances shift by +10.
	newDelta := dec(20)
	diff := newDelta.Sub(rows[0].Delta)
	rows[0].Delta = newDelta
	rows[0].Kind = models.KindForDelta(newDelta)
	rows[0].BalanceAfter = rows[0].BalanceAfter.Add(diff)
	applyDiff(rows, rows[0].Seq, diff)

	assertBalances(t, rows, "20", "25", "22")
	if !chainIsConsistent(decimal.Zero, rows) {
		t.Fatal("amended chain must stay consistent")
	}
}

func TestAmend_SignFlipRewritesKind(t *testing.T) {
	rows := chainOf(10, 5)

	newDelta := dec(-4)
	diff := newDelta.Sub(rows[1].Delta)
	rows[1].Delta = newDelta
	rows[1].Kind = models.KindForDelta(newDelta)
	rows[1].BalanceAfter = rows[1].BalanceAfter.Add(diff)
	applyDiff(rows, rows[1].Seq, diff)

	if rows[1].Kind != models.PointKindDeduction {
		t.Fatalf("expected kind to follow the new delta, got %s", rows[1].Kind)
	}
	assertBalances(t, rows, "10", "6")
}

func TestDelete_PropagatesRemovalForward(t *testing.T) {
	rows := chainOf(10, 5, -3)

	// Delete the middle transaction: later balances drop by its delta.
	removed := rows[1]
	rows = append(rows[:1], rows[2:]...)
	applyDiff(rows, removed.Seq, removed.Delta.Neg())

	assertBalances(t, rows, "10", "7")
	if !chainIsConsistent(decimal.Zero, rows) {
		t.Fatal("chain must stay consistent after delete")
	}
}

func TestRecompute_RepairsDriftedChain(t *testing.T) {
	rows := chainOf(10, 5, -3)

	// Corrupt a middle balance, as a partial historical write would.
	rows[1].BalanceAfter = dec(999)
	if chainIsConsistent(decimal.Zero, rows) {
		t.Fatal("corrupted chain must be detected")
	}

	final := recomputeChain(decimal.Zero, rows)
	assertBalances(t, rows, "10", "15", "12")
	if final.String() != "12" {
		t.Fatalf("expected final balance 12, got %s", final)
	}
}

func TestRecompute_NonZeroBase(t *testing.T) {
	rows := chainOf(10, -3)
	final := recomputeChain(dec(100), rows)

	assertBalances(t, rows, "110", "107")
	if final.String() != "107" {
		t.Fatalf("expected final balance 107, got %s", final)
	}
}

func TestChains_AreIndependentAcrossEmployees(t *testing.T) {
	emp1 := chainOf(10, 5, -3)
	emp2 := chainOf(7)

	// Amend on employee 2 must not touch employee 1's chain.
	diff := dec(3)
	emp2[0].Delta = emp2[0].Delta.Add(diff)
	emp2[0].BalanceAfter = emp2[0].BalanceAfter.Add(diff)
	applyDiff(emp2, emp2[0].Seq, diff)

	assertBalances(t, emp1, "10", "15", "12")
	assertBalances(t, emp2, "10")
}
