package runlog

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/validation"
)

// DefaultLimit is how many runs List returns when Query.Limit is unset.
const DefaultLimit = 20

// Query filters List. Zero values match everything.
type Query struct {
	Status   Status
	Scenario string
	Limit    int
}

// Store reads and writes run history.
type Store struct {
	db        *DB
	retention int
}

var _ etl.Recorder = (*Store)(nil)

// NewStore creates a Store. retention > 0 keeps only that many of the most
// recent runs.
func NewStore(db *DB, retention int) *Store {
	return &Store{db: db, retention: retention}
}

// Record implements etl.Recorder.
func (s *Store) Record(ctx context.Context, o etl.Outcome) error {
	r := FromOutcome(o)
	return s.Save(ctx, &r)
}

// Save writes r and its stages, replacing an earlier record of the same run.
func (s *Store) Save(ctx context.Context, r *Run) error {
	if err := validation.New().Required("run_id", r.ID).Err(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", r.ID).Delete(&Stage{}).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(r).Error; err != nil {
			return err
		}
		if len(r.Stages) > 0 {
			for i := range r.Stages {
				r.Stages[i].RunID = r.ID
			}
			if err := tx.Create(&r.Stages).Error; err != nil {
				return err
			}
		}
		return s.prune(tx)
	})
	if err != nil {
		return apperrors.Database("save", err).WithDetail("run_id", r.ID)
	}
	return nil
}

// prune drops runs beyond the retention window, oldest first.
func (s *Store) prune(tx *gorm.DB) error {
	if s.retention <= 0 {
		return nil
	}
	keep := tx.Model(&Run{}).Select("id").Order("started_at DESC").Limit(s.retention)
	if err := tx.Where("id NOT IN (?)", keep).Delete(&Run{}).Error; err != nil {
		return err
	}
	return tx.Where("run_id NOT IN (?)", tx.Model(&Run{}).Select("id")).Delete(&Stage{}).Error
}

// Get returns a run with its stages.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var r Run
	err := s.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("stage") }).
		First(&r, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.NotFound("run", id)
	case err != nil:
		return nil, apperrors.Database("get", err).WithDetail("run_id", id)
	}
	return &r, nil
}

// List returns matching runs, newest first, without their stages.
func (s *Store) List(ctx context.Context, q Query) ([]Run, error) {
	err := validation.New().
		OneOf("status", string(q.Status), string(StatusSucceeded), string(StatusFailed)).
		Err()
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	tx := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Scenario != "" {
		tx = tx.Where("scenario = ?", q.Scenario)
	}
	runs := []Run{}
	if err := tx.Find(&runs).Error; err != nil {
		return nil, apperrors.Database("list", err)
	}
	return runs, nil
}
