package transcriptRepo

import (
	"context"

	"concierge/config"
	"concierge/database"
	"concierge/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Repository archives conversation turns per session.
type Repository interface {
	Create(ctx context.Context, record models.TurnRecord) (string, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]models.TurnRecord, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

type mongoTranscriptRepo struct {
	coll *mongo.Collection
}

// NewMongoTranscriptRepo returns a new Repository instance using MongoDB.
func NewMongoTranscriptRepo() Repository {
	db := database.MongoClient.Database(config.AppConfig.MongoDatabase)
	return &mongoTranscriptRepo{
		coll: db.Collection("transcripts"),
	}
}
