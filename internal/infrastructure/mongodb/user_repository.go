package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre MongoDB (colección users).
type UserRepo struct {
	coll *mongo.Collection
}

// NewUserRepository construye el adaptador.
func NewUserRepository(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(CollUsers)}
}

// NextID ObjectID hex, el mismo formato de _id que ya tienen las colecciones.
func (r *UserRepo) NextID() string { return primitive.NewObjectID().Hex() }

// Create inserta el usuario; email duplicado -> ErrEmailAlreadyExists (índice único).
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	doc, err := toUserDoc(user)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail (nil, nil) si no existe.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return doc.entity(), nil
}

// Update actualiza perfil y settings.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	d, err := toUserDoc(user)
	if err != nil {
		return domain.ErrUserNotFound
	}
	return r.set(ctx, user.ID, "update user", bson.M{
		"business_name":    d.BusinessName,
		"phone":            d.Phone,
		"business_address": d.BusinessAddress,
		"business_logo":    d.BusinessLogo,
		"email_verified":   d.EmailVerified,
		"settings":         d.Settings,
		"updated_at":       d.UpdatedAt,
	})
}

// UpdatePassword reemplaza el hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.set(ctx, id, "update password", bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	})
}

// Deactivate borrado lógico.
func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	return r.set(ctx, id, "deactivate user", bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
}

func (r *UserRepo) set(ctx context.Context, id, op string, fields bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
