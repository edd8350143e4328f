package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openforum/session-gateway/internal/core/domain"
)

const accountCollection = "auth_accounts"

// AccountRepository persists the self-hosted identity provider's accounts.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	DisplayName  string             `bson:"display_name"`
	PhotoURL     string             `bson:"photo_url,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Federated    bool               `bson:"federated"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	doc := mongoAccount{
		Email:        acc.Email,
		DisplayName:  acc.DisplayName,
		PhotoURL:     acc.PhotoURL,
		PasswordHash: acc.PasswordHash,
		Federated:    acc.Federated,
		CreatedAt:    acc.CreatedAt.Unix(),
		UpdatedAt:    acc.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *acc
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.UID = oid.Hex()
	}
	return &created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var ma mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&ma); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, acc *domain.Account) error {
	oid, err := primitive.ObjectIDFromHex(acc.UID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"display_name": acc.DisplayName,
		"photo_url":    acc.PhotoURL,
		"updated_at":   time.Now().UTC().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (ma *mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		UID:          ma.ID.Hex(),
		Email:        ma.Email,
		DisplayName:  ma.DisplayName,
		PhotoURL:     ma.PhotoURL,
		PasswordHash: ma.PasswordHash,
		Federated:    ma.Federated,
		CreatedAt:    unixToTime(ma.CreatedAt),
		UpdatedAt:    unixToTime(ma.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
