package rbac

import "github.com/jhoicas/invorya-auth/internal/domain/entity"

// Engine decide acceso rol -> recurso. Es puro: sin I/O ni estado mutable.
// Es la única fuente de verdad para el gating de UI y API.
type Engine struct {
	matrix *Matrix
}

// NewEngine construye el motor con la matriz cargada al arrancar.
func NewEngine(m *Matrix) *Engine {
	if m == nil {
		m = &Matrix{}
	}
	return &Engine{matrix: m}
}

// CanAccess deniega por defecto: rol o recurso desconocidos devuelven false.
func (e *Engine) CanAccess(role entity.Role, res Resource) bool {
	if e == nil || e.matrix == nil || e.matrix.grants == nil {
		return false
	}
	return e.matrix.allows(role, res)
}

// FirstAccessible devuelve el primer candidato, en el orden dado, al que el rol tiene acceso.
func (e *Engine) FirstAccessible(role entity.Role, candidates []Resource) (Resource, bool) {
	for _, res := range candidates {
		if e.CanAccess(role, res) {
			return res, true
		}
	}
	return "", false
}

// Resources lista ordenada de recursos del rol (vacía para roles sin permisos).
func (e *Engine) Resources(role entity.Role) []Resource {
	if e == nil || e.matrix == nil || e.matrix.grants == nil {
		return []Resource{}
	}
	return e.matrix.resources(role)
}
