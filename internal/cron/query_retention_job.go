package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const queryRetentionDays = 30

// QueryRetentionJobName is the registry name of the retention sweep.
const QueryRetentionJobName = "query-retention"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type attachmentRemover interface {
	Delete(ctx context.Context, ref string) error
}

type QueryRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  queries.Repository
	Attachments attachmentRemover
	Metrics     *metrics.RetentionMetrics
	Retention   int
}

func NewQueryRetentionJob(params QueryRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("query repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = queryRetentionDays
	}
	return &queryRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		attachments: params.Attachments,
		metrics:     params.Metrics,
		retention:   retention,
		now:         time.Now,
	}, nil
}

type queryRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        queries.Repository
	attachments attachmentRemover
	metrics     *metrics.RetentionMetrics
	retention   int
	now         func() time.Time
}

func (j *queryRetentionJob) Name() string { return QueryRetentionJobName }

// Run purges queries soft-deleted before the cutoff, then removes their
// files. File failures are logged and do not undo the purge.
func (j *queryRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)

	var (
		purged int64
		refs   []string
	)
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		expired, err := repo.ListDeletedBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(expired))
		for _, q := range expired {
			ids = append(ids, q.ID)
			refs = append(refs, attachmentRefs(q)...)
		}
		purged, err = repo.Purge(ctx, ids)
		return err
	})
	if err != nil {
		return fmt.Errorf("query retention: %w", err)
	}
	j.metrics.Purged(int(purged))

	var cleanupErr error
	if j.attachments != nil {
		for _, ref := range refs {
			cleanupErr = multierr.Append(cleanupErr, j.attachments.Delete(ctx, ref))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_days":  j.retention,
		"queries_purged":  purged,
		"files_to_remove": len(refs),
	})
	if cleanupErr != nil {
		failures := len(multierr.Errors(cleanupErr))
		j.metrics.FileFailures(failures)
		logCtx = j.logg.WithField(logCtx, "file_failures", failures)
		j.logg.Error(logCtx, "query retention attachment cleanup incomplete", cleanupErr)
		return nil
	}
	j.logg.Info(logCtx, "query retention cleanup complete")
	return nil
}

func attachmentRefs(q models.Query) []string {
	var refs []string
	if q.AttachmentPath != nil && *q.AttachmentPath != "" {
		refs = append(refs, *q.AttachmentPath)
	}
	for _, resp := range q.SupplierResponses {
		if resp.AttachmentPath != nil && *resp.AttachmentPath != "" {
			refs = append(refs, *resp.AttachmentPath)
		}
	}
	return refs
}
