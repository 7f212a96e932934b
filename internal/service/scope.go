package service

import (
	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

// resolveShopID determines which shop a request operates on. Shop-bound
// actors always get their assigned shop and may not name another one; global
// actors must name the shop explicitly.
func resolveShopID(actor model.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.IsGlobal() {
		if requested == nil {
			return uuid.Nil, apperror.Validation("shop_id is required for global accounts")
		}
		return *requested, nil
	}
	if actor.ShopID == nil {
		return uuid.Nil, apperror.Scope("account is not assigned to any shop")
	}
	if requested != nil && *requested != *actor.ShopID {
		return uuid.Nil, apperror.Scope("access to another shop's data is not allowed")
	}
	return *actor.ShopID, nil
}

// ensureShopScope verifies the actor may touch data belonging to shopID.
// Services call this again on rows loaded by id, so a leaked foreign id
// still cannot cross the shop boundary.
func ensureShopScope(actor model.Actor, shopID uuid.UUID) error {
	if actor.IsGlobal() {
		return nil
	}
	if actor.ShopID == nil || *actor.ShopID != shopID {
		return apperror.Scope("access to another shop's data is not allowed")
	}
	return nil
}
