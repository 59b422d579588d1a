package database

import (
	"context"
	"fmt"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResultArchive は終了したラウンドを PostgreSQL に書き込む
type ResultArchive struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewResultArchive(db *gorm.DB, logger *zap.Logger) *ResultArchive {
	return &ResultArchive{db: db, logger: logger}
}

func (a *ResultArchive) SaveRoundResult(ctx context.Context, roomID string, result game.RoundResult) error {
	record, err := models.NewRoundRecord(roomID, result)
	if err != nil {
		return fmt.Errorf("build round record: %w", err)
	}
	if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("save round record: %w", err)
	}
	a.logger.Info("round result archived",
		zap.String("roomID", roomID),
		zap.Int("round", result.RoundNumber),
		zap.Uint("recordID", record.ID),
	)
	return nil
}
