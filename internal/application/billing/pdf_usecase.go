package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

// PDFUseCase genera la versión imprimible (PDF) de un recibo.
type PDFUseCase struct {
	receiptRepo repository.ReceiptRepository
	userRepo    repository.UserRepository
	generator   ReceiptPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	receiptRepo repository.ReceiptRepository,
	userRepo repository.UserRepository,
	generator ReceiptPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		receiptRepo: receiptRepo,
		userRepo:    userRepo,
		generator:   generator,
	}
}

// DownloadReceiptPDF carga el recibo del usuario y su negocio y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el recibo no existe o no es del usuario.
func (uc *PDFUseCase) DownloadReceiptPDF(ctx context.Context, userID, receiptID string) (pdfBytes []byte, filename string, err error) {
	rc, err := uc.receiptRepo.GetByID(ctx, userID, receiptID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener recibo: %w", err)
	}
	if rc == nil {
		return nil, "", domain.ErrNotFound
	}
	owner, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener usuario: %w", err)
	}
	pdfBytes, err = uc.Render(ctx, rc, owner)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, PDFFilename(rc), nil
}

// Render genera el PDF de un recibo ya cargado (también lo usan los adjuntos de email).
func (uc *PDFUseCase) Render(ctx context.Context, rc *entity.Receipt, owner *entity.User) ([]byte, error) {
	b, err := uc.generator.GenerateReceiptPDF(ctx, rc, owner)
	if err != nil {
		return nil, fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return b, nil
}

// PDFFilename nombre de archivo seguro para el recibo.
func PDFFilename(rc *entity.Receipt) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, rc.ReceiptNumber)
	return fmt.Sprintf("receipt_%s.pdf", safe)
}
