package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"truefeedback/internal/domain"
	"truefeedback/pkg/mongodb"
)

const pollsCollection = "polls"

// MongoPollRepository stores each poll as one document with embedded responses
type MongoPollRepository struct {
	polls *mongo.Collection
}

func NewMongoPollRepository(db *mongodb.MongoDB) *MongoPollRepository {
	return &MongoPollRepository{polls: db.DB.Collection(pollsCollection)}
}

// EnsureIndexes creates the unique slug index and the owner listing index
func (r *MongoPollRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_slug"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_at"),
		},
	}
	if _, err := r.polls.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create poll indexes: %w", err)
	}
	return nil
}

// Create inserts a new poll document
func (r *MongoPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	doc := *poll
	// $push needs an array, never null
	if doc.Responses == nil {
		doc.Responses = []domain.Response{}
	}

	_, err := r.polls.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

// FindBySlug gets a poll and all of its responses
func (r *MongoPollRepository) FindBySlug(ctx context.Context, slug string) (*domain.Poll, error) {
	var poll domain.Poll
	err := r.polls.FindOne(ctx, bson.M{"slug": slug}).Decode(&poll)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll by slug: %w", err)
	}
	return &poll, nil
}

// AppendResponse pushes the response and bumps the counter in one document update
func (r *MongoPollRepository) AppendResponse(ctx context.Context, pollID string, response domain.Response) (int, error) {
	update := bson.M{
		"$push": bson.M{"responses": response},
		"$inc":  bson.M{"response_count": 1},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"response_count": 1})

	var updated struct {
		ResponseCount int `bson:"response_count"`
	}
	err := r.polls.FindOneAndUpdate(ctx, bson.M{"_id": pollID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrPollNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append response: %w", err)
	}
	return updated.ResponseCount, nil
}

// ListByOwner lists the polls created by ownerID without loading responses
func (r *MongoPollRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.PollSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"responses": 0, "questions": 0})

	cursor, err := r.polls.Find(ctx, bson.M{"created_by": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []domain.PollSummary{}
	for cursor.Next(ctx) {
		var poll domain.Poll
		if err := cursor.Decode(&poll); err != nil {
			return nil, fmt.Errorf("failed to decode poll: %w", err)
		}
		summaries = append(summaries, domain.PollSummary{
			ID:             poll.ID,
			Title:          poll.Title,
			Slug:           poll.Slug,
			Organization:   poll.Organization,
			TotalResponses: poll.ResponseCount,
			CreatedAt:      poll.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}

	return summaries, nil
}
