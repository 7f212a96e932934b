package service

import (
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShopIDGlobalRequiresExplicitShop(t *testing.T) {
	_, err := resolveShopID(globalActor(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	shopID := uuid.New()
	resolved, err := resolveShopID(globalActor(), &shopID)
	require.NoError(t, err)
	assert.Equal(t, shopID, resolved)
}

func TestResolveShopIDBoundActorPinnedToOwnShop(t *testing.T) {
	shopID := uuid.New()
	actor := shopActor(shopID)

	resolved, err := resolveShopID(actor, nil)
	require.NoError(t, err)
	assert.Equal(t, shopID, resolved)

	// Naming the own shop explicitly is fine.
	resolved, err = resolveShopID(actor, &shopID)
	require.NoError(t, err)
	assert.Equal(t, shopID, resolved)

	other := uuid.New()
	_, err = resolveShopID(actor, &other)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindScope))
}

func TestResolveShopIDUnassignedActor(t *testing.T) {
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleEmployee}

	_, err := resolveShopID(actor, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindScope))
}

func TestGlobalAccessFlagGrantsCrossShopReads(t *testing.T) {
	shopID := uuid.New()
	auditor := model.Actor{UserID: uuid.New(), Role: model.RoleEmployee, GlobalAccess: true}

	assert.NoError(t, ensureShopScope(auditor, shopID))

	bound := shopActor(shopID)
	assert.NoError(t, ensureShopScope(bound, shopID))
	assert.Error(t, ensureShopScope(bound, uuid.New()))
}
