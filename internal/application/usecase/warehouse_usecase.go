package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

// WarehouseUseCase CRUD de tiendas acotado al principal.
// La empresa y la tienda salen siempre del principal, nunca de parámetros del cliente.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create crea una nueva tienda en la empresa del principal.
// Un usuario limitado a una tienda no puede crear otras.
func (uc *WarehouseUseCase) Create(ctx context.Context, p *entity.Principal, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	if p.StoreScoped() {
		return nil, fmt.Errorf("%w: usuario limitado a una tienda", domain.ErrForbidden)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		CompanyID: p.CompanyID,
		Name:      name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una tienda visible para el principal; ErrNotFound en otro caso.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, p *entity.Principal, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza una tienda visible para el principal.
func (uc *WarehouseUseCase) Update(ctx context.Context, p *entity.Principal, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
		}
		warehouse.Name = name
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	warehouse.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista las tiendas de la empresa; un usuario de tienda solo ve la suya.
func (uc *WarehouseUseCase) List(ctx context.Context, p *entity.Principal, limit, offset int) (*dto.WarehouseListResponse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	var list []*entity.Warehouse
	if p.StoreScoped() {
		w, err := uc.repo.GetByID(ctx, p.CompanyID, *p.StoreID)
		if err != nil {
			return nil, err
		}
		if w != nil && offset == 0 {
			list = append(list, w)
		}
	} else {
		var err error
		list, err = uc.repo.ListByCompany(ctx, p.CompanyID, limit, offset)
		if err != nil {
			return nil, err
		}
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina una tienda de la empresa. Los usuarios asignados quedan sin tienda y con sus sesiones revocadas.
func (uc *WarehouseUseCase) Delete(ctx context.Context, p *entity.Principal, id string) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if p.StoreScoped() {
		return fmt.Errorf("%w: usuario limitado a una tienda", domain.ErrForbidden)
	}
	return uc.repo.Delete(ctx, p.CompanyID, id)
}

func (uc *WarehouseUseCase) load(ctx context.Context, p *entity.Principal, id string) (*entity.Warehouse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	if !p.CanSeeStore(id) {
		return nil, domain.ErrNotFound
	}
	warehouse, err := uc.repo.GetByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	return warehouse, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		CompanyID: w.CompanyID,
		Name:      w.Name,
		Address:   w.Address,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
