package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

type CreateSupplierRequest struct {
	ShopID  *uuid.UUID `json:"shop_id"`
	Name    string     `json:"name" binding:"required,max=160"`
	Contact string     `json:"contact" binding:"max=255"`
}

type UpdateSupplierRequest struct {
	Name     string `json:"name" binding:"required,max=160"`
	Contact  string `json:"contact" binding:"max=255"`
	IsActive *bool  `json:"is_active"`
}

type SupplierService interface {
	Create(ctx context.Context, actor model.Actor, req CreateSupplierRequest) (*model.Supplier, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateSupplierRequest) (*model.Supplier, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string) ([]model.Supplier, int64, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
}

func NewSupplierService(supplierRepo repository.SupplierRepository) SupplierService {
	return &supplierService{supplierRepo: supplierRepo}
}

func (s *supplierService) Create(ctx context.Context, actor model.Actor, req CreateSupplierRequest) (*model.Supplier, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		ShopID:   shopID,
		Name:     req.Name,
		Contact:  req.Contact,
		IsActive: true,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Conflictf("supplier %q already exists in this shop", req.Name)
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateSupplierRequest) (*model.Supplier, error) {
	supplier, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.Contact = req.Contact
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Conflictf("supplier %q already exists in this shop", req.Name)
		}
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Supplier, error) {
	return s.load(ctx, actor, id)
}

func (s *supplierService) List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string) ([]model.Supplier, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.supplierRepo.List(ctx, resolved, page, limit, search)
}

func (s *supplierService) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("supplier not found")
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	if err := ensureShopScope(actor, supplier.ShopID); err != nil {
		return nil, err
	}
	return supplier, nil
}
