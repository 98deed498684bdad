package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Las capas de persistencia y tokens devuelven causas precisas envueltas con %w;
// la capa de aplicación y HTTP las colapsan en estos tipos visibles al cliente.
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrSelfModification = errors.New("no se puede modificar la propia cuenta de esta forma")
	ErrRateLimited      = errors.New("demasiadas solicitudes")
)
