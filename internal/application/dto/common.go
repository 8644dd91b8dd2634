package dto

import "strings"

// MaxPageSize tope de elementos por página en todos los listados.
const MaxPageSize = 100

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto y el tope de MaxPageSize.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// SortRequest campo y dirección de ordenamiento ("asc" | "desc").
type SortRequest struct {
	Sort  string `query:"sort"`
	Order string `query:"order"`
}

// Resolve devuelve el campo a usar (def si no está en allowed) y si es descendente.
func (s SortRequest) Resolve(def string, allowed ...string) (field string, desc bool) {
	field = def
	for _, a := range allowed {
		if strings.EqualFold(s.Sort, a) {
			field = a
			break
		}
	}
	return field, strings.EqualFold(s.Order, "desc")
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
