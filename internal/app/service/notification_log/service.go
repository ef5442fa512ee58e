package notificationlog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/pkg/logctx"
	"github.com/ventopay/checkout/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a notification audit row. Nil input is ignored.
func (s *Service) Save(ctx context.Context, row *models.NotificationLog) {
	go func() {
		if row == nil {
			return
		}
		if row.ID == "" {
			row.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(row).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save notification log: %v", err)
		}
	}()
}
