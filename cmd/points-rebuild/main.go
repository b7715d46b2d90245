package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/workflow"
)

func main() {
	employeeID := flag.Int("employee-id", 0, "Optional: rebuild a single employee's chain")
	baseBalanceStr := flag.String("base-balance", "0", "Optional: base balance the chain starts from")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing employees and continue rebuilding others")
	flag.Parse()

	baseBalance, err := decimal.NewFromString(strings.TrimSpace(*baseBalanceStr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid base balance: %v\n", err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	ctx := context.Background()
	ledger := workflow.NewPointsLedger(db, logger)

	var employeeIds []int
	if *employeeID > 0 {
		employeeIds = []int{*employeeID}
	} else {
		// Every employee with at least one ledger row.
		err := db.WithContext(ctx).Model(&models.Point{}).
			Distinct("employee_id").
			Order("employee_id ASC").
			Pluck("employee_id", &employeeIds).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list employees: %v\n", err)
			os.Exit(1)
		}
	}

	if len(employeeIds) == 0 {
		fmt.Println("nothing to rebuild")
		return
	}

	failures := 0
	repaired := 0
	for _, id := range employeeIds {
		report, err := ledger.Rebuild(ctx, id, baseBalance)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "employee %d: rebuild failed: %v\n", id, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		if report.Repaired > 0 {
			repaired++
			fmt.Printf("employee %d: repaired %d rows, balance %s -> %s\n",
				id, report.Repaired, report.PreviousBalance, report.Balance)
		}
	}

	fmt.Printf("done: %d employees checked, %d repaired, %d failed\n", len(employeeIds), repaired, failures)
	if failures > 0 {
		os.Exit(1)
	}
}
