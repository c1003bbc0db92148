package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingRemover struct {
	removed []string
	failOn  map[string]bool
}

func (r *recordingRemover) Delete(ctx context.Context, ref string) error {
	r.removed = append(r.removed, ref)
	if r.failOn[ref] {
		return errors.New("disk error")
	}
	return nil
}

func strPtr(s string) *string { return &s }

func seedQuery(t *testing.T, conn *gorm.DB, deletedAt *time.Time, attachment *string, responses ...models.SupplierResponse) models.Query {
	t.Helper()
	q := models.Query{ClientName: "ACME", DeletedAt: deletedAt, AttachmentPath: attachment}
	require.NoError(t, conn.Omit("Items", "SupplierResponses").Create(&q).Error)
	require.NoError(t, conn.Create(&models.QueryItem{QueryID: q.ID, SerialNumber: 1, Description: "valve"}).Error)
	for _, resp := range responses {
		resp.QueryID = q.ID
		require.NoError(t, conn.Create(&resp).Error)
	}
	return q
}

func newRetentionJob(t *testing.T, remover attachmentRemover) (*queryRetentionJob, *gorm.DB, time.Time) {
	t.Helper()
	client, conn := dbtest.Client(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	jobIface, err := NewQueryRetentionJob(QueryRetentionJobParams{
		Logger:      logger.New(logger.Options{Output: io.Discard}),
		DB:          client,
		Repository:  queries.NewRepository(conn),
		Attachments: remover,
	})
	require.NoError(t, err)
	job := jobIface.(*queryRetentionJob)
	job.now = func() time.Time { return now }
	return job, conn, now
}

func TestQueryRetentionPurgesExpiredQueries(t *testing.T) {
	remover := &recordingRemover{}
	job, conn, now := newRetentionJob(t, remover)

	old := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	expired := seedQuery(t, conn, &old, strPtr("queries/a.pdf"),
		models.SupplierResponse{SupplierName: "Alpha", Response: "yes", AttachmentPath: strPtr("supplier-responses/b.pdf")},
		models.SupplierResponse{SupplierName: "Beta", Response: "no"})
	kept := seedQuery(t, conn, &recent, nil)
	active := seedQuery(t, conn, nil, strPtr("queries/c.pdf"))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "query-retention", job.Name())

	var remaining []int64
	require.NoError(t, conn.Model(&models.Query{}).Order("id").Pluck("id", &remaining).Error)
	assert.Equal(t, []int64{kept.ID, active.ID}, remaining)

	var items, responses int64
	require.NoError(t, conn.Model(&models.QueryItem{}).Where("query_id = ?", expired.ID).Count(&items).Error)
	require.NoError(t, conn.Model(&models.SupplierResponse{}).Where("query_id = ?", expired.ID).Count(&responses).Error)
	assert.Zero(t, items)
	assert.Zero(t, responses)

	assert.ElementsMatch(t, []string{"queries/a.pdf", "supplier-responses/b.pdf"}, remover.removed)
}

func TestQueryRetentionKeepsPurgeWhenFileRemovalFails(t *testing.T) {
	remover := &recordingRemover{failOn: map[string]bool{"queries/a.pdf": true}}
	job, conn, now := newRetentionJob(t, remover)
	reg := prometheus.NewRegistry()
	job.metrics = metrics.NewRetentionMetrics(reg)

	old := now.Add(-40 * 24 * time.Hour)
	seedQuery(t, conn, &old, strPtr("queries/a.pdf"))

	require.NoError(t, job.Run(context.Background()))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, values["erp_retention_queries_purged_total"])
	assert.Equal(t, 1.0, values["erp_retention_attachment_failures_total"])

	var count int64
	require.NoError(t, conn.Model(&models.Query{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, []string{"queries/a.pdf"}, remover.removed)
}

func TestQueryRetentionNothingToDo(t *testing.T) {
	remover := &recordingRemover{}
	job, conn, _ := newRetentionJob(t, remover)
	seedQuery(t, conn, nil, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, remover.removed)
}

func TestNewQueryRetentionJobValidatesParams(t *testing.T) {
	_, err := NewQueryRetentionJob(QueryRetentionJobParams{})
	assert.Error(t, err)

	job, err := NewQueryRetentionJob(QueryRetentionJobParams{
		Logger:     logger.New(logger.Options{Output: io.Discard}),
		DB:         stubTx{},
		Repository: queries.NewRepository(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, queryRetentionDays, job.(*queryRetentionJob).retention)
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }
