package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/hr_backend/models"
)

// Pure balance-chain arithmetic, shared by the ledger workflow and the
// rebuild command. Rows must be in seq order.

// recomputeChain rewrites every balance_after from the base balance forward
// and returns the final balance. Input order is preserved.
func recomputeChain(base decimal.Decimal, rows []models.Point) decimal.Decimal {
	running := base
	for i := range rows {
		running = running.Add(rows[i].Delta)
		rows[i].BalanceAfter = running
	}
	return running
}

// applyDiff shifts balance_after by diff on every row strictly after seq.
// Mirrors the bulk UPDATE the ledger issues, for in-memory verification.
func applyDiff(rows []models.Point, afterSeq int, diff decimal.Decimal) {
	for i := range rows {
		if rows[i].Seq > afterSeq {
			rows[i].BalanceAfter = rows[i].BalanceAfter.Add(diff)
		}
	}
}

// chainIsConsistent checks that each balance_after equals the previous one
// plus the row's delta, starting from base.
func chainIsConsistent(base decimal.Decimal, rows []models.Point) bool {
	running := base
	for i := range rows {
		running = running.Add(rows[i].Delta)
		if !rows[i].BalanceAfter.Equal(running) {
			return false
		}
	}
	return true
}
