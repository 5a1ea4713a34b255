package payments

import "github.com/google/uuid"

type RowOutcome string

const (
	RowCharged         RowOutcome = "charged"
	RowDeclined        RowOutcome = "declined"
	RowSkippedZero     RowOutcome = "skipped_zero_price"
	RowSkippedNoCard   RowOutcome = "skipped_no_card"
	RowSkippedExisting RowOutcome = "skipped_existing"
	RowSkippedNotDue   RowOutcome = "skipped_not_due"
	RowError           RowOutcome = "error"
)

// RowResult is the outcome of one unit of a batch.
type RowResult struct {
	AttendanceID uuid.UUID
	PaymentID    uuid.UUID
	Outcome      RowOutcome
	Err          error
}

// Attempted is true when a charge request was issued for the unit.
func (r RowResult) Attempted() bool {
	return r.Outcome == RowCharged || r.Outcome == RowDeclined
}

// BatchResult folds per-unit results; no unit error escapes it.
type BatchResult struct {
	Rows []RowResult
}

func (b *BatchResult) add(r RowResult) { b.Rows = append(b.Rows, r) }

func (b BatchResult) Attempted() int {
	n := 0
	for _, r := range b.Rows {
		if r.Attempted() {
			n++
		}
	}
	return n
}

func (b BatchResult) Count(o RowOutcome) int {
	n := 0
	for _, r := range b.Rows {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (b BatchResult) Skipped() int {
	return b.Count(RowSkippedZero) + b.Count(RowSkippedNoCard) + b.Count(RowSkippedExisting) + b.Count(RowSkippedNotDue)
}
