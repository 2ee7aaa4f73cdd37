package jobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"library-loans-backend/internal/logger"
)

// OverdueReport summarises issued transactions past their due date.
type OverdueReport struct {
	Count          int
	ProjectedFines decimal.Decimal
	// OldestDueDate is nil when nothing is overdue.
	OldestDueDate *time.Time
}

// ReportOverdueTransactions logs every overdue loan with the fine it would
// incur if returned today. Overdue is derived, so nothing is written.
func (jr *JobRunner) ReportOverdueTransactions() {
	jr.runWithRecovery("ReportOverdueTransactions", func(ctx context.Context) {
		report, err := jr.buildOverdueReport(ctx)
		if err != nil {
			logger.Error("Failed to list overdue transactions", "error", err)
			return
		}

		attrs := []any{"count", report.Count, "projected_fines", report.ProjectedFines.StringFixed(2)}
		if report.OldestDueDate != nil {
			attrs = append(attrs, "oldest_due_date", report.OldestDueDate.Format(time.DateOnly))
		}
		logger.Info("Overdue transactions report", attrs...)
	})
}

func (jr *JobRunner) buildOverdueReport(ctx context.Context) (OverdueReport, error) {
	views, err := jr.transactions.ListOverdue(ctx)
	if err != nil {
		return OverdueReport{}, err
	}

	policy := jr.transactions.Policy()
	now := jr.now()
	report := OverdueReport{ProjectedFines: decimal.Zero}
	for _, v := range views {
		if v.DueDate == nil {
			continue
		}
		fine := policy.FineFor(*v.DueDate, now)
		report.Count++
		report.ProjectedFines = report.ProjectedFines.Add(fine)
		if report.OldestDueDate == nil || v.DueDate.Before(*report.OldestDueDate) {
			due := *v.DueDate
			report.OldestDueDate = &due
		}

		logger.Debug("Overdue transaction",
			"transaction_id", v.ID,
			"student_id", v.StudentID,
			"book_id", v.BookID,
			"due_date", v.DueDate.Format(time.DateOnly),
			"projected_fine", fine.StringFixed(2))
	}
	return report, nil
}
