package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"beefline/api/internal/repository"
)

const (
	TypeExpireDocuments = "expire-documents"
	TypeCleanupSold     = "cleanup-sold"

	// Sold listings stay browsable for a while, then drop out of the
	// public index.
	soldRetention = "90 days"
)

type Processor struct {
	cattle    *repository.CattleRepository
	documents *repository.DocumentRepository
	logger    zerolog.Logger
}

type TaskPayload struct {
	Type string `json:"type"`
}

func NewProcessor(cattle *repository.CattleRepository, documents *repository.DocumentRepository, logger zerolog.Logger) *Processor {
	return &Processor{
		cattle:    cattle,
		documents: documents,
		logger:    logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case TypeExpireDocuments:
		return p.expireDocuments(ctx)
	case TypeCleanupSold:
		return p.cleanupSold(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// expireDocuments reports health documents whose expiry date has
// passed, so sellers can be chased for renewals.
func (p *Processor) expireDocuments(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	expired, err := p.documents.ListExpiredBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("list expired documents: %w", err)
	}

	for _, doc := range expired {
		p.logger.Info().
			Str("document_id", doc.ID).
			Str("cattle_id", doc.CattleID).
			Str("document_type", string(doc.DocumentType)).
			Time("expiry_date", *doc.ExpiryDate).
			Msg("health document expired")
	}

	p.logger.Info().Int("count", len(expired)).Msg("document expiry sweep complete")
	return nil
}

func (p *Processor) cleanupSold(ctx context.Context) error {
	deactivated, err := p.cattle.DeactivateSoldBefore(ctx, soldRetention)
	if err != nil {
		return fmt.Errorf("deactivate sold listings: %w", err)
	}

	p.logger.Info().Int64("count", deactivated).Msg("sold listing cleanup complete")
	return nil
}
