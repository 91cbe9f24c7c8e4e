package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/pkg/logger"
	"github.com/jhoicas/ereceipt-api/pkg/money"
	"github.com/shopspring/decimal"
)

// ReceiptUseCase casos de uso de recibos: CRUD, listado, estadísticas y marcado de envíos.
// cache y events son opcionales (nil = deshabilitados).
type ReceiptUseCase struct {
	repo     repository.ReceiptRepository
	userRepo repository.UserRepository
	tx       ReceiptTxRunner
	cache    StatsCache
	events   EventPublisher
	log      *logger.Logger
	now      func() time.Time
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(
	repo repository.ReceiptRepository,
	userRepo repository.UserRepository,
	tx ReceiptTxRunner,
	cache StatsCache,
	events EventPublisher,
	log *logger.Logger,
) *ReceiptUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReceiptUseCase{
		repo:     repo,
		userRepo: userRepo,
		tx:       tx,
		cache:    cache,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Create valida la entrada y persiste el recibo. Los totales se guardan tal como llegan.
// tax_rate y currency por defecto salen de los settings del usuario.
func (uc *ReceiptUseCase) Create(ctx context.Context, userID string, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	settings := entity.DefaultUserSettings()
	if owner, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	} else if owner != nil {
		settings = owner.Settings
	}

	now := uc.now().UTC()
	rc := &entity.Receipt{
		ID:              uc.repo.NextID(),
		UserID:          userID,
		ReceiptNumber:   strings.TrimSpace(in.ReceiptNumber),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		TransactionDate: in.TransactionDate,
		Items:           toItems(in.Items),
		Subtotal:        *in.Subtotal,
		TaxRate:         settings.DefaultTaxRate,
		Tax:             *in.Tax,
		Total:           *in.Total,
		Currency:        settings.Currency,
		PaymentMethod:   nonEmpty(in.PaymentMethod, entity.DefaultPaymentMethod),
		PaymentStatus:   nonEmpty(in.PaymentStatus, entity.DefaultPaymentStatus),
		Status:          entity.ReceiptStatusCreated,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rc.ReceiptNumber == "" {
		rc.ReceiptNumber = receipt.DefaultNumber(now, "")
	}
	if rc.TransactionDate == "" {
		rc.TransactionDate = receipt.Today(now)
	}
	if in.TaxRate != nil {
		rc.TaxRate = *in.TaxRate
	}
	if in.Currency != "" {
		rc.Currency = money.Normalize(in.Currency)
	}
	if rc.Currency == "" {
		rc.Currency = money.DefaultCurrency
	}
	if err := receipt.ValidateLengths(rc); err != nil {
		return nil, err
	}

	err := uc.tx.RunReceipts(ctx, func(repo repository.ReceiptRepository) error {
		return repo.Create(ctx, rc)
	})
	if err != nil {
		return nil, err
	}
	uc.changed(ctx, entity.EventReceiptCreated, rc, "")
	return ToReceiptResponse(rc), nil
}

func validateCreate(in dto.CreateReceiptRequest) error {
	switch {
	case strings.TrimSpace(in.CustomerName) == "":
		return fmt.Errorf("%w: falta el campo requerido customer_name", domain.ErrInvalidInput)
	case in.Items == nil:
		return fmt.Errorf("%w: falta el campo requerido items", domain.ErrInvalidInput)
	case in.Subtotal == nil:
		return fmt.Errorf("%w: falta el campo requerido subtotal", domain.ErrInvalidInput)
	case in.Tax == nil:
		return fmt.Errorf("%w: falta el campo requerido tax", domain.ErrInvalidInput)
	case in.Total == nil:
		return fmt.Errorf("%w: falta el campo requerido total", domain.ErrInvalidInput)
	}
	if err := receipt.ValidateItems(toItems(in.Items)); err != nil {
		return err
	}
	if in.TransactionDate != "" {
		return receipt.ValidateDate(in.TransactionDate)
	}
	return nil
}

// Get devuelve un recibo del usuario o ErrNotFound.
func (uc *ReceiptUseCase) Get(ctx context.Context, userID, id string) (*dto.ReceiptResponse, error) {
	rc, err := uc.Find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return ToReceiptResponse(rc), nil
}

// Find devuelve la entidad del recibo del usuario o ErrNotFound.
func (uc *ReceiptUseCase) Find(ctx context.Context, userID, id string) (*entity.Receipt, error) {
	rc, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, domain.ErrNotFound
	}
	return rc, nil
}

// GetByNumber busca por número de recibo dentro de los recibos del usuario.
func (uc *ReceiptUseCase) GetByNumber(ctx context.Context, userID, number string) (*dto.ReceiptResponse, error) {
	rc, err := uc.repo.GetByNumber(ctx, userID, number)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, domain.ErrNotFound
	}
	return ToReceiptResponse(rc), nil
}

// List devuelve una página de recibos ordenada del más reciente al más antiguo.
func (uc *ReceiptUseCase) List(ctx context.Context, userID string, q dto.ReceiptListQuery) (*dto.ReceiptListResponse, error) {
	q.DefaultPage()
	rows, total, err := uc.repo.List(ctx, entity.ReceiptFilter{
		UserID:  userID,
		Search:  strings.TrimSpace(q.Search),
		Status:  strings.TrimSpace(q.Status),
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ReceiptListResponse{
		Receipts:   make([]dto.ReceiptResponse, 0, len(rows)),
		Pagination: dto.NewPageResponse(q.Page, q.PerPage, total),
	}
	for _, rc := range rows {
		out.Receipts = append(out.Receipts, *ToReceiptResponse(rc))
	}
	return out, nil
}

// Update aplica solo los campos editables presentes en la petición.
func (uc *ReceiptUseCase) Update(ctx context.Context, userID, id string, in dto.UpdateReceiptRequest) (*dto.ReceiptResponse, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: no se enviaron datos", domain.ErrInvalidInput)
	}
	if in.Items != nil {
		if err := receipt.ValidateItems(toItems(in.Items)); err != nil {
			return nil, err
		}
	}
	if in.TransactionDate != nil {
		if err := receipt.ValidateDate(*in.TransactionDate); err != nil {
			return nil, err
		}
	}
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer_name no puede estar vacío", domain.ErrInvalidInput)
	}

	var updated *entity.Receipt
	err := uc.tx.RunReceipts(ctx, func(repo repository.ReceiptRepository) error {
		rc, err := repo.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if rc == nil {
			return domain.ErrNotFound
		}
		applyUpdate(rc, in)
		if err := receipt.ValidateLengths(rc); err != nil {
			return err
		}
		rc.UpdatedAt = uc.now().UTC()
		if err := repo.Update(ctx, rc); err != nil {
			return err
		}
		updated = rc
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.changed(ctx, entity.EventReceiptUpdated, updated, "")
	return ToReceiptResponse(updated), nil
}

func applyUpdate(rc *entity.Receipt, in dto.UpdateReceiptRequest) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setDec := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	setStr(&rc.CustomerName, in.CustomerName)
	setStr(&rc.CustomerEmail, in.CustomerEmail)
	setStr(&rc.CustomerPhone, in.CustomerPhone)
	setStr(&rc.TransactionDate, in.TransactionDate)
	setStr(&rc.PaymentMethod, in.PaymentMethod)
	setStr(&rc.PaymentStatus, in.PaymentStatus)
	if in.Notes != nil {
		rc.Notes = *in.Notes
	}
	if in.Items != nil {
		rc.Items = toItems(in.Items)
	}
	setDec(&rc.Subtotal, in.Subtotal)
	setDec(&rc.TaxRate, in.TaxRate)
	setDec(&rc.Tax, in.Tax)
	setDec(&rc.Total, in.Total)
}

// Delete elimina un recibo del usuario.
func (uc *ReceiptUseCase) Delete(ctx context.Context, userID, id string) error {
	rc, err := uc.Find(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	uc.changed(ctx, entity.EventReceiptDeleted, rc, "")
	return nil
}

// MarkSent registra un envío exitoso por el canal indicado.
func (uc *ReceiptUseCase) MarkSent(ctx context.Context, rc *entity.Receipt, channel, sentTo string) error {
	if err := uc.repo.MarkSent(ctx, rc.UserID, rc.ID, channel, uc.now().UTC()); err != nil {
		return err
	}
	evt := entity.EventReceiptEmailSent
	if channel == repository.ChannelSMS {
		evt = entity.EventReceiptSMSSent
	}
	uc.changed(ctx, evt, rc, sentTo)
	return nil
}

// Stats estadísticas del usuario con lectura a través de la caché.
func (uc *ReceiptUseCase) Stats(ctx context.Context, userID string) (*dto.StatsResponse, error) {
	if uc.cache != nil {
		st, ok, err := uc.cache.Get(ctx, userID)
		if err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("leer stats de caché")
		} else if ok {
			return toStatsResponse(st), nil
		}
	}
	st, err := uc.repo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, userID, st); err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("guardar stats en caché")
		}
	}
	return toStatsResponse(st), nil
}

// Calculate vista previa de totales a partir de las líneas y la tasa.
func (uc *ReceiptUseCase) Calculate(in dto.CalculateRequest) (*dto.CalculateResponse, error) {
	items := toItems(in.Items)
	if len(items) > 0 {
		if err := receipt.ValidateItems(items); err != nil {
			return nil, err
		}
	}
	rate := entity.DefaultTaxRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}
	t := receipt.Compute(items, rate)
	return &dto.CalculateResponse{Subtotal: t.Subtotal, TaxRate: rate, Tax: t.Tax, Total: t.Total}, nil
}

// changed invalida la caché del usuario y publica el evento. Los fallos solo se registran.
func (uc *ReceiptUseCase) changed(ctx context.Context, eventType string, rc *entity.Receipt, sentTo string) {
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, rc.UserID); err != nil {
			uc.log.Warn().Err(err).Str("user_id", rc.UserID).Msg("invalidar caché de stats")
		}
	}
	if uc.events == nil {
		return
	}
	evt := entity.ReceiptEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		ReceiptID:     rc.ID,
		UserID:        rc.UserID,
		ReceiptNumber: rc.ReceiptNumber,
		SentTo:        sentTo,
		OccurredAt:    uc.now().UTC(),
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Error().Err(err).Str("event", eventType).Str("receipt_id", rc.ID).Msg("publicar evento")
	}
}

func toItems(in []dto.ReceiptItemDTO) []entity.ReceiptItem {
	out := make([]entity.ReceiptItem, 0, len(in))
	for _, it := range in {
		out = append(out, entity.ReceiptItem{Name: strings.TrimSpace(it.Name), Quantity: it.Quantity, Price: it.Price})
	}
	return out
}

// ToReceiptResponse mapea la entidad a su DTO.
func ToReceiptResponse(rc *entity.Receipt) *dto.ReceiptResponse {
	items := make([]dto.ReceiptItemDTO, 0, len(rc.Items))
	for _, it := range rc.Items {
		items = append(items, dto.ReceiptItemDTO{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return &dto.ReceiptResponse{
		ID:              rc.ID,
		ReceiptNumber:   rc.ReceiptNumber,
		CustomerName:    rc.CustomerName,
		CustomerEmail:   rc.CustomerEmail,
		CustomerPhone:   rc.CustomerPhone,
		TransactionDate: rc.TransactionDate,
		Items:           items,
		Subtotal:        rc.Subtotal,
		TaxRate:         rc.TaxRate,
		Tax:             rc.Tax,
		Total:           rc.Total,
		Currency:        rc.Currency,
		PaymentMethod:   rc.PaymentMethod,
		PaymentStatus:   rc.PaymentStatus,
		Status:          rc.Status,
		EmailSent:       rc.EmailSent,
		EmailSentAt:     rc.EmailSentAt,
		SMSSent:         rc.SMSSent,
		SMSSentAt:       rc.SMSSentAt,
		Notes:           rc.Notes,
		CreatedAt:       rc.CreatedAt,
		UpdatedAt:       rc.UpdatedAt,
	}
}

func toStatsResponse(st *entity.ReceiptStats) *dto.StatsResponse {
	return &dto.StatsResponse{Stats: dto.StatsDTO{
		TotalReceipts: st.TotalReceipts,
		TotalRevenue:  st.TotalRevenue,
		TotalTax:      st.TotalTax,
		EmailsSent:    st.EmailsSent,
		SMSSent:       st.SMSSent,
	}}
}

func nonEmpty(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
