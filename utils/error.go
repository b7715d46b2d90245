package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Ledger failure kinds. Handlers map these to HTTP status codes.
var (
	ErrorInvalidInput     = errors.New("invalid input")
	ErrorEditWindowClosed = errors.New("edit window closed")
	ErrorLedgerConflict   = errors.New("ledger conflict")
	ErrorLedgerDrift      = errors.New("ledger drift detected")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
