package mirror

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Ledger records mirror outcomes and answers questions about them.
type Ledger interface {
	Record(ctx context.Context, visit *Visit) error
	ListPages(ctx context.Context, account, repository string) ([]string, error)
	CountByOutcome(ctx context.Context) (map[string]int64, error)
}

// GormLedger persists visits using a Gorm database connection.
type GormLedger struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Ledger = (*GormLedger)(nil)

// NewLedger constructs a Gorm-backed ledger.
func NewLedger(db *gorm.DB, logger *logrus.Logger) (*GormLedger, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormLedger{db: db, logger: logger}, nil
}

// Record inserts a visit row.
func (l *GormLedger) Record(ctx context.Context, visit *Visit) error {
	if visit == nil {
		return eris.New("visit is nil")
	}

	visit.Account = strings.TrimSpace(visit.Account)
	visit.Repository = strings.TrimSpace(visit.Repository)
	if visit.Account == "" || visit.Repository == "" {
		return eris.New("visit account and repository are required")
	}
	if visit.Outcome == "" {
		visit.Outcome = ConditionNormal.String()
	}

	if err := l.db.WithContext(ctx).Create(visit).Error; err != nil {
		l.logError(logrus.Fields{"account": visit.Account, "repository": visit.Repository}, err, "recording visit")
		return eris.Wrapf(err, "recording visit: %s/%s", visit.Account, visit.Repository)
	}

	return nil
}

// ListPages returns the distinct named pages of one wiki that were mirrored
// successfully, ordered by name. The wiki root is not listed.
func (l *GormLedger) ListPages(ctx context.Context, account, repository string) ([]string, error) {
	var pages []string

	err := l.db.WithContext(ctx).
		Model(&Visit{}).
		Where("account = ? AND repository = ? AND outcome = ? AND page <> ''", account, repository, ConditionNormal.String()).
		Distinct("page").
		Order("page ASC").
		Pluck("page", &pages).Error
	if err != nil {
		l.logError(logrus.Fields{"account": account, "repository": repository}, err, "listing wiki pages")
		return nil, eris.Wrapf(err, "listing wiki pages: %s/%s", account, repository)
	}

	return pages, nil
}

// CountByOutcome returns the number of visits per outcome.
func (l *GormLedger) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}

	err := l.db.WithContext(ctx).
		Model(&Visit{}).
		Select("outcome, count(*) AS total").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		l.logError(nil, err, "counting visits by outcome")
		return nil, eris.Wrap(err, "counting visits by outcome")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}

func (l *GormLedger) logError(fields logrus.Fields, err error, message string) {
	if l.logger == nil {
		return
	}

	entry := l.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
