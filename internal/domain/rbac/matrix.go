package rbac

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"

	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

//go:embed default_matrix.yaml
var defaultMatrixYAML []byte

// Matrix tabla estática rol -> conjunto de recursos accesibles.
// Se construye una vez al arrancar y no se muta después; no expone el mapa interno.
type Matrix struct {
	grants map[entity.Role]map[Resource]struct{}
}

// matrixFile formato YAML de la matriz.
type matrixFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// NewMatrix construye la matriz validando roles y recursos.
func NewMatrix(table map[entity.Role][]Resource) (*Matrix, error) {
	grants := make(map[entity.Role]map[Resource]struct{}, len(table))
	for role, resources := range table {
		if !role.IsValid() {
			return nil, fmt.Errorf("matriz: rol desconocido %q", role)
		}
		set := make(map[Resource]struct{}, len(resources))
		for _, res := range resources {
			parsed := ParseResource(string(res))
			if parsed == "" {
				return nil, fmt.Errorf("matriz: recurso inválido %q para rol %s", res, role)
			}
			set[parsed] = struct{}{}
		}
		grants[role] = set
	}
	return &Matrix{grants: grants}, nil
}

// LoadMatrix lee la matriz desde YAML (ver default_matrix.yaml).
func LoadMatrix(r io.Reader) (*Matrix, error) {
	var f matrixFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("matriz: decodificar yaml: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("matriz: sin roles")
	}
	table := make(map[entity.Role][]Resource, len(f.Roles))
	for name, resources := range f.Roles {
		role, err := entity.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("matriz: %w", err)
		}
		list := make([]Resource, 0, len(resources))
		for _, res := range resources {
			list = append(list, Resource(res))
		}
		table[role] = list
	}
	return NewMatrix(table)
}

// DefaultMatrix matriz embebida en el binario.
func DefaultMatrix() (*Matrix, error) {
	return LoadMatrix(bytes.NewReader(defaultMatrixYAML))
}

// Table devuelve una copia ordenada de la matriz para auditoría.
func (m *Matrix) Table() map[entity.Role][]Resource {
	out := make(map[entity.Role][]Resource, len(m.grants))
	for role := range m.grants {
		out[role] = m.resources(role)
	}
	return out
}

func (m *Matrix) allows(role entity.Role, res Resource) bool {
	set, ok := m.grants[role]
	if !ok {
		return false
	}
	_, ok = set[res]
	return ok
}

func (m *Matrix) resources(role entity.Role) []Resource {
	set := m.grants[role]
	list := make([]Resource, 0, len(set))
	for res := range set {
		list = append(list, res)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
