package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	memberserrors "roombook/internal/members/errors"
	"roombook/pkg/config"
	"roombook/pkg/model"
)

const (
	CollectionName = "Members"
)

type MemberRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Member, error)
	FindByID(ctx context.Context, id string) (*model.Member, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoMemberRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMemberRepository(cfg *config.Config) MemberRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMemberRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoMemberRepository) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var member model.Member
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, memberserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find member by email: %w", err)
	}

	return &member, nil
}

func (r *mongoMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", memberserrors.ErrInvalidID, id)
	}

	var member model.Member
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, memberserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	return &member, nil
}

// EnsureIndexes creates the unique email index used by login lookups.
func (r *mongoMemberRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("failed to create member indexes: %w", err)
	}
	return nil
}
