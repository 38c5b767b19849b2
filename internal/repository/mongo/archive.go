package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/domain"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Archive keeps a write-behind copy of every persisted message in a Mongo
// collection, where retention and ad-hoc querying are cheaper than in the
// primary store. It is strictly an archive: the primary store remains the
// source of truth and archive failures never fail a send.
type Archive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewArchive connects to Mongo and verifies the connection
func NewArchive(ctx context.Context, cfg config.MongoConfig) (*Archive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Archive{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects from Mongo
func (a *Archive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// Insert stores one message document
func (a *Archive) Insert(ctx context.Context, message *domain.Message) error {
	doc := bson.M{
		"_id":          message.ID.String(),
		"room":         message.Room,
		"sender_id":    message.SenderID.String(),
		"sender_name":  message.SenderName,
		"message_type": string(message.MessageType),
		"content":      message.Content,
		"drawing_url":  message.DrawingURL,
		"image_url":    message.ImageURL,
		"timestamp":    message.Timestamp,
		"is_read":      message.IsRead,
	}

	if _, err := a.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive message: %w", err)
	}

	return nil
}

// ArchivingMessageRepository decorates a domain.MessageRepository so that
// every created message is also copied to the archive. The copy is
// asynchronous and best-effort.
type ArchivingMessageRepository struct {
	primary domain.MessageRepository
	archive *Archive
}

// NewArchivingMessageRepository wraps primary with write-behind archiving
func NewArchivingMessageRepository(primary domain.MessageRepository, archive *Archive) *ArchivingMessageRepository {
	return &ArchivingMessageRepository{primary: primary, archive: archive}
}

// Create persists to the primary store, then archives in the background
func (r *ArchivingMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if err := r.primary.Create(ctx, message); err != nil {
		return err
	}

	msg := *message
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.archive.Insert(ctx, &msg); err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("message archive failed")
		}
	}()

	return nil
}

// ListByRoom reads from the primary store only
func (r *ArchivingMessageRepository) ListByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	return r.primary.ListByRoom(ctx, room, limit)
}
