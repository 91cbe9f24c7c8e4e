package dto

import (
	"math"

	"github.com/shopspring/decimal"
)

func init() {
	// Importes como números JSON (no strings) en las respuestas.
	decimal.MarshalJSONWithoutQuotes = true
}

// Paginación por defecto y máximo permitido en listados.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PageRequest paginación para listados (page base 1).
type PageRequest struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

// DefaultPage aplica valores por defecto: page >= 1, per_page 20 y tope 100.
// page se acota para que (page-1)*per_page no desborde int; una página más allá del final
// sale vacía.
func (p *PageRequest) DefaultPage() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if maxPage := math.MaxInt / p.PerPage; p.Page > maxPage {
		p.Page = maxPage
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
}

// NewPageResponse calcula el número de páginas (techo de total/per_page).
func NewPageResponse(page, perPage int, total int64) PageResponse {
	var pages int64
	if perPage > 0 {
		pages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return PageResponse{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageResponse respuesta simple de confirmación.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse respuesta de /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
