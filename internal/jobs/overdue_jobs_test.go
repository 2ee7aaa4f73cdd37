package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library-loans-backend/internal/config"
	"library-loans-backend/internal/domain"
)

type mockOverdueSource struct {
	mock.Mock
}

func (m *mockOverdueSource) ListOverdue(ctx context.Context) ([]domain.TransactionView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionView), args.Error(1)
}

func (m *mockOverdueSource) Policy() domain.LoanPolicy {
	return domain.DefaultLoanPolicy()
}

func TestBuildOverdueReport(t *testing.T) {
	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	src := new(mockOverdueSource)
	src.On("ListOverdue", mock.Anything).Return([]domain.TransactionView{
		{ID: 2, Status: domain.TransactionStatusIssued, DueDate: &newer},
		{ID: 1, Status: domain.TransactionStatusIssued, DueDate: &older},
	}, nil)

	jr := NewJobRunner(src, &config.Config{})
	jr.now = func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }

	report, err := jr.buildOverdueReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count)
	assert.True(t, report.ProjectedFines.Equal(decimal.NewFromInt(400)))
	require.NotNil(t, report.OldestDueDate)
	assert.Equal(t, older, *report.OldestDueDate)
}

func TestBuildOverdueReport_Empty(t *testing.T) {
	src := new(mockOverdueSource)
	src.On("ListOverdue", mock.Anything).Return([]domain.TransactionView{}, nil)

	report, err := NewJobRunner(src, &config.Config{}).buildOverdueReport(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Count)
	assert.Nil(t, report.OldestDueDate)
}

func TestReportOverdueTransactions_SwallowsFailures(t *testing.T) {
	src := new(mockOverdueSource)
	src.On("ListOverdue", mock.Anything).Return(nil, errors.New("db down")).Once()
	jr := NewJobRunner(src, &config.Config{})

	assert.NotPanics(t, jr.ReportOverdueTransactions)
	src.AssertExpectations(t)
}

func TestRunWithRecovery(t *testing.T) {
	jr := NewJobRunner(new(mockOverdueSource), &config.Config{})
	assert.NotPanics(t, func() {
		jr.runWithRecovery("Explodes", func(context.Context) { panic("boom") })
	})
}
