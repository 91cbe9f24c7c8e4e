package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

var (
	_ repository.ReceiptRepository = (*ReceiptRepo)(nil)
	_ billing.ReceiptTxRunner      = (*TxRunner)(nil)
)

// ReceiptRepo implementación del puerto ReceiptRepository sobre MongoDB.
// Los items van embebidos en el documento del recibo.
type ReceiptRepo struct {
	coll *mongo.Collection
}

// NewReceiptRepository construye el adaptador.
func NewReceiptRepository(db *mongo.Database) *ReceiptRepo {
	return &ReceiptRepo{coll: db.Collection(CollReceipts)}
}

// NextID ObjectID hex.
func (r *ReceiptRepo) NextID() string { return primitive.NewObjectID().Hex() }

// owned filtro por _id y dueño; false si alguno de los ids no es un ObjectID.
func owned(userID, id string) (bson.M, bool) {
	oid, ok := objectID(id)
	uid, uok := objectID(userID)
	if !ok || !uok {
		return nil, false
	}
	return bson.M{"_id": oid, "user_id": uid}, true
}

// Create inserta el documento completo.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	doc, err := toReceiptDoc(rc)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe o es de otro usuario.
func (r *ReceiptRepo) GetByID(ctx context.Context, userID, id string) (*entity.Receipt, error) {
	filter, ok := owned(userID, id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, filter, nil)
}

// GetByNumber el más reciente del usuario con ese número.
func (r *ReceiptRepo) GetByNumber(ctx context.Context, userID, number string) (*entity.Receipt, error) {
	uid, ok := objectID(userID)
	if !ok {
		return nil, nil
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findOne(ctx, bson.M{"receipt_number": number, "user_id": uid}, opts)
}

func (r *ReceiptRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*entity.Receipt, error) {
	var doc receiptDoc
	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return doc.entity(), nil
}

// listFilter la búsqueda es literal (QuoteMeta) y sin distinguir mayúsculas.
func listFilter(uid primitive.ObjectID, f entity.ReceiptFilter) bson.M {
	filter := bson.M{"user_id": uid}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"customer_name": re},
			bson.M{"receipt_number": re},
			bson.M{"customer_email": re},
		}
	}
	return filter
}

// List página ordenada por created_at desc y total filtrado.
func (r *ReceiptRepo) List(ctx context.Context, f entity.ReceiptFilter) ([]*entity.Receipt, int64, error) {
	uid, ok := objectID(f.UserID)
	if !ok {
		return []*entity.Receipt{}, 0, nil
	}
	filter := listFilter(uid, f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(f.Offset())).
		SetLimit(int64(f.PerPage))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}
	var docs []receiptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode receipts: %w", err)
	}
	list := make([]*entity.Receipt, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.entity())
	}
	return list, total, nil
}

// Update reemplaza los campos editables (incluidos los items).
func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	d, err := toReceiptDoc(rc)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": d.ID, "user_id": d.UserID},
		bson.M{"$set": bson.M{
			"customer_name":    d.CustomerName,
			"customer_email":   d.CustomerEmail,
			"customer_phone":   d.CustomerPhone,
			"transaction_date": d.TransactionDate,
			"items":            d.Items,
			"subtotal":         d.Subtotal,
			"tax_rate":         d.TaxRate,
			"tax":              d.Tax,
			"total":            d.Total,
			"payment_method":   d.PaymentMethod,
			"payment_status":   d.PaymentStatus,
			"notes":            d.Notes,
			"updated_at":       d.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// markSentPipeline update con pipeline: el status se deriva del flag del otro canal en el servidor.
func markSentPipeline(channel string, at time.Time) (mongo.Pipeline, error) {
	var flag, other, single string
	switch channel {
	case repository.ChannelEmail:
		flag, other, single = "email_sent", "$sms_sent", entity.ReceiptStatusEmailSent
	case repository.ChannelSMS:
		flag, other, single = "sms_sent", "$email_sent", entity.ReceiptStatusSMSSent
	default:
		return nil, domain.ErrInvalidInput
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: flag, Value: true},
			{Key: flag + "_at", Value: at},
			{Key: "updated_at", Value: at},
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{other, entity.ReceiptStatusBothSent, single}}}},
		}}},
	}, nil
}

// MarkSent marca el canal como enviado.
func (r *ReceiptRepo) MarkSent(ctx context.Context, userID, id, channel string, at time.Time) error {
	pipeline, err := markSentPipeline(channel, at)
	if err != nil {
		return err
	}
	filter, ok := owned(userID, id)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("mark receipt sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el recibo del usuario.
func (r *ReceiptRepo) Delete(ctx context.Context, userID, id string) error {
	filter, ok := owned(userID, id)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type statsDoc struct {
	TotalReceipts int64                `bson:"total_receipts"`
	TotalRevenue  primitive.Decimal128 `bson:"total_revenue"`
	TotalTax      primitive.Decimal128 `bson:"total_tax"`
	EmailsSent    int64                `bson:"emails_sent"`
	SMSSent       int64                `bson:"sms_sent"`
}

func countIf(field string) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{"$" + field, 1, 0}}}}}
}

// Stats agregación $group sobre los recibos del usuario.
func (r *ReceiptRepo) Stats(ctx context.Context, userID string) (*entity.ReceiptStats, error) {
	uid, ok := objectID(userID)
	if !ok {
		return &entity.ReceiptStats{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: uid}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_receipts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
			{Key: "total_tax", Value: bson.D{{Key: "$sum", Value: "$tax"}}},
			{Key: "emails_sent", Value: countIf("email_sent")},
			{Key: "sms_sent", Value: countIf("sms_sent")},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("receipt stats: %w", err)
	}
	defer cur.Close(ctx)

	st := &entity.ReceiptStats{}
	if cur.Next(ctx) {
		var doc statsDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		st.TotalReceipts = doc.TotalReceipts
		st.TotalRevenue = fromD128(doc.TotalRevenue)
		st.TotalTax = fromD128(doc.TotalTax)
		st.EmailsSent = doc.EmailsSent
		st.SMSSent = doc.SMSSent
	}
	return st, cur.Err()
}

// TxRunner cada recibo es un solo documento, así que la escritura ya es atómica sin sesión.
type TxRunner struct {
	repo *ReceiptRepo
}

// NewTxRunner construye el runner.
func NewTxRunner(repo *ReceiptRepo) *TxRunner {
	return &TxRunner{repo: repo}
}

// RunReceipts ejecuta fn con el repositorio.
func (t *TxRunner) RunReceipts(_ context.Context, fn func(receiptRepo repository.ReceiptRepository) error) error {
	return fn(t.repo)
}
