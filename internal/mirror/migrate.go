package mirror

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the visit ledger schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "mirror.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying visit ledger schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Visit{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("visit ledger migration failed")
		}
		return eris.Wrap(err, "auto migrating visit ledger schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("visit ledger migration complete")
	}

	return nil
}
