package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpenseDefaultsCategoryAndRounds(t *testing.T) {
	repo := newStubExpenseRepo()
	svc := NewExpenseService(repo)
	expense, err := svc.Create(context.Background(), shopActor(uuid.New()), CreateExpenseRequest{
		Amount: decimal.NewFromFloat(120.005),
		Note:   "carton tape",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ExpenseCategoryOther, expense.Category)
	assert.True(t, expense.Amount.Equal(decimal.NewFromInt(120)), "amount %s", expense.Amount)
	assert.False(t, expense.IncurredAt.IsZero())
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	svc := NewExpenseService(newStubExpenseRepo())
	actor := shopActor(uuid.New())

	_, err := svc.Create(context.Background(), actor, CreateExpenseRequest{
		Amount: decimal.Zero,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Create(context.Background(), actor, CreateExpenseRequest{
		Amount:   decimal.NewFromInt(10),
		Category: "entertainment",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestExpenseScopeOnUpdate(t *testing.T) {
	repo := newStubExpenseRepo()
	svc := NewExpenseService(repo)
	owner := shopActor(uuid.New())
	ctx := context.Background()

	expense, err := svc.Create(ctx, owner, CreateExpenseRequest{
		Category: model.ExpenseCategoryRent,
		Amount:   decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	stranger := shopActor(uuid.New())
	_, err = svc.Update(ctx, stranger, expense.ID, UpdateExpenseRequest{
		Amount: decimal.NewFromInt(600),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindScope))
}
