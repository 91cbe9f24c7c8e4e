package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

var errInvalidID = fmt.Errorf("%w: id no es un ObjectID", domain.ErrInvalidInput)

// objectID convierte el id hex de la API; false si no es un ObjectID válido.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// Los montos se guardan como Decimal128 para que $sum opere sin pérdida.
func toD128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromD128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type settingsDoc struct {
	DefaultTaxRate       primitive.Decimal128 `bson:"default_tax_rate"`
	Currency             string               `bson:"currency"`
	ReceiptFooterMessage string               `bson:"receipt_footer_message"`
}

type userDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password_hash"`
	BusinessName    string             `bson:"business_name"`
	Phone           string             `bson:"phone,omitempty"`
	BusinessAddress string             `bson:"business_address,omitempty"`
	BusinessLogo    string             `bson:"business_logo,omitempty"`
	IsActive        bool               `bson:"is_active"`
	EmailVerified   bool               `bson:"email_verified"`
	Settings        settingsDoc        `bson:"settings"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func toUserDoc(u *entity.User) (userDoc, error) {
	id, ok := objectID(u.ID)
	if !ok {
		return userDoc{}, errInvalidID
	}
	return userDoc{
		ID:              id,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		BusinessName:    u.BusinessName,
		Phone:           u.Phone,
		BusinessAddress: u.BusinessAddress,
		BusinessLogo:    u.BusinessLogo,
		IsActive:        u.IsActive,
		EmailVerified:   u.EmailVerified,
		Settings: settingsDoc{
			DefaultTaxRate:       toD128(u.Settings.DefaultTaxRate),
			Currency:             u.Settings.Currency,
			ReceiptFooterMessage: u.Settings.ReceiptFooterMessage,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

func (d userDoc) entity() *entity.User {
	return &entity.User{
		ID:              d.ID.Hex(),
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		BusinessName:    d.BusinessName,
		Phone:           d.Phone,
		BusinessAddress: d.BusinessAddress,
		BusinessLogo:    d.BusinessLogo,
		IsActive:        d.IsActive,
		EmailVerified:   d.EmailVerified,
		Settings: entity.UserSettings{
			DefaultTaxRate:       fromD128(d.Settings.DefaultTaxRate),
			Currency:             d.Settings.Currency,
			ReceiptFooterMessage: d.Settings.ReceiptFooterMessage,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type itemDoc struct {
	Name     string               `bson:"name"`
	Quantity primitive.Decimal128 `bson:"quantity"`
	Price    primitive.Decimal128 `bson:"price"`
}

type receiptDoc struct {
	ID              primitive.ObjectID   `bson:"_id"`
	UserID          primitive.ObjectID   `bson:"user_id"`
	ReceiptNumber   string               `bson:"receipt_number"`
	CustomerName    string               `bson:"customer_name"`
	CustomerEmail   string               `bson:"customer_email,omitempty"`
	CustomerPhone   string               `bson:"customer_phone,omitempty"`
	TransactionDate string               `bson:"transaction_date"`
	Items           []itemDoc            `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	TaxRate         primitive.Decimal128 `bson:"tax_rate"`
	Tax             primitive.Decimal128 `bson:"tax"`
	Total           primitive.Decimal128 `bson:"total"`
	Currency        string               `bson:"currency"`
	PaymentMethod   string               `bson:"payment_method"`
	PaymentStatus   string               `bson:"payment_status"`
	Status          string               `bson:"status"`
	EmailSent       bool                 `bson:"email_sent"`
	EmailSentAt     *time.Time           `bson:"email_sent_at,omitempty"`
	SMSSent         bool                 `bson:"sms_sent"`
	SMSSentAt       *time.Time           `bson:"sms_sent_at,omitempty"`
	Notes           string               `bson:"notes,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func toItemDocs(items []entity.ReceiptItem) []itemDoc {
	out := make([]itemDoc, 0, len(items))
	for _, it := range items {
		out = append(out, itemDoc{Name: it.Name, Quantity: toD128(it.Quantity), Price: toD128(it.Price)})
	}
	return out
}

func toReceiptDoc(rc *entity.Receipt) (receiptDoc, error) {
	id, ok := objectID(rc.ID)
	uid, uok := objectID(rc.UserID)
	if !ok || !uok {
		return receiptDoc{}, errInvalidID
	}
	return receiptDoc{
		ID:              id,
		UserID:          uid,
		ReceiptNumber:   rc.ReceiptNumber,
		CustomerName:    rc.CustomerName,
		CustomerEmail:   rc.CustomerEmail,
		CustomerPhone:   rc.CustomerPhone,
		TransactionDate: rc.TransactionDate,
		Items:           toItemDocs(rc.Items),
		Subtotal:        toD128(rc.Subtotal),
		TaxRate:         toD128(rc.TaxRate),
		Tax:             toD128(rc.Tax),
		Total:           toD128(rc.Total),
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
	}, nil
}

func (d receiptDoc) entity() *entity.Receipt {
	items := make([]entity.ReceiptItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, entity.ReceiptItem{Name: it.Name, Quantity: fromD128(it.Quantity), Price: fromD128(it.Price)})
	}
	return &entity.Receipt{
		ID:              d.ID.Hex(),
		UserID:          d.UserID.Hex(),
		ReceiptNumber:   d.ReceiptNumber,
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		CustomerPhone:   d.CustomerPhone,
		TransactionDate: d.TransactionDate,
		Items:           items,
		Subtotal:        fromD128(d.Subtotal),
		TaxRate:         fromD128(d.TaxRate),
		Tax:             fromD128(d.Tax),
		Total:           fromD128(d.Total),
		Currency:        d.Currency,
		PaymentMethod:   d.PaymentMethod,
		PaymentStatus:   d.PaymentStatus,
		Status:          d.Status,
		EmailSent:       d.EmailSent,
		EmailSentAt:     d.EmailSentAt,
		SMSSent:         d.SMSSent,
		SMSSentAt:       d.SMSSentAt,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
