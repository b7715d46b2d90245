package config

import (
	"os"
	"strconv"
	"strings"
)

// LedgerAutoRepair makes chain rebuilds persist corrections instead of only
// reporting drift.
//
// Set via env:
// - LEDGER_AUTO_REPAIR=true
func LedgerAutoRepair() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_AUTO_REPAIR")))
	return v == "" || v == "1" || v == "true" || v == "yes" || v == "y"
}

// PointsEditWindowHours bounds how long after creation a point transaction
// may be amended. 0 disables the window check.
//
// Set via env:
// - POINTS_EDIT_WINDOW_HOURS=72
func PointsEditWindowHours() int {
	v := strings.TrimSpace(os.Getenv("POINTS_EDIT_WINDOW_HOURS"))
	if v == "" {
		return 72
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 72
	}
	return n
}

// EmailDispatchDisabled turns the outbox dispatcher into a no-op claimer.
// Records stay PENDING until re-enabled. Useful for local development.
//
// Set via env:
// - EMAIL_DISPATCH_DISABLED=true
func EmailDispatchDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("EMAIL_DISPATCH_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
