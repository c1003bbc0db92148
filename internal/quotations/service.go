package quotations

import (
	"context"
	"errors"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/finance"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service exposes quotation CRUD. Totals are always recomputed from items.
type Service interface {
	List(ctx context.Context, actor *access.Actor) ([]models.Quotation, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Quotation, error)
	Create(ctx context.Context, actor *access.Actor, input Input) (*models.Quotation, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.Quotation, error)
	Delete(ctx context.Context, actor *access.Actor, id int64) error
}

type ServiceParams struct {
	Repository Repository
	Tx         db.TxRunner
	Activity   activity.Recorder
	Logger     *logger.Logger
}

type service struct {
	repo     Repository
	tx       db.TxRunner
	activity activity.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quotations repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		activity: params.Activity,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, actor *access.Actor) ([]models.Quotation, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list quotations")
	}
	if rows == nil {
		rows = []models.Quotation{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, actor *access.Actor, id int64) (*models.Quotation, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, actor *access.Actor, input Input) (*models.Quotation, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return nil, err
	}
	quotation, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &quotation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create quotation")
		}
		if err := repo.ReplaceItems(ctx, quotation.ID, input.itemModels(quotation.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert quotation items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "create quotation")
	}

	s.record(ctx, actor, enums.ActivityActionCreate, &quotation)
	return s.load(ctx, quotation.ID)
}

func (s *service) Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.Quotation, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	quotation, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	quotation.ID = id

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, &quotation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update quotation")
		}
		if err := repo.ReplaceItems(ctx, id, input.itemModels(id)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replace quotation items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "update quotation")
	}

	s.record(ctx, actor, enums.ActivityActionUpdate, &quotation)
	return s.load(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor *access.Actor, id int64) error {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete quotation")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "delete quotation")
	}
	s.record(ctx, actor, enums.ActivityActionDelete, existing)
	return nil
}

func (s *service) prepare(ctx context.Context, input Input) (models.Quotation, error) {
	quotationType, err := enums.ParseQuotationType(input.QuotationType)
	if err != nil {
		return models.Quotation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quotation type")
	}
	if err := finance.ValidateLines(input.lines()); err != nil {
		return models.Quotation{}, err
	}
	if !quotationType.IsLocal() && input.Freight.IsNegative() {
		return models.Quotation{}, pkgerrors.New(pkgerrors.CodeValidation, "freight must not be negative")
	}
	if input.QueryID != nil {
		ok, err := s.repo.ActiveQueryExists(ctx, *input.QueryID)
		if err != nil {
			return models.Quotation{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check linked query")
		}
		if !ok {
			return models.Quotation{}, pkgerrors.New(pkgerrors.CodeValidation, "linked query does not exist")
		}
	}
	return input.model(quotationType), nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Quotation, error) {
	quotation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load quotation")
	}
	return quotation, nil
}

func (s *service) record(ctx context.Context, actor *access.Actor, action enums.ActivityAction, q *models.Quotation) {
	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: enums.EntityTypeQuotation,
		EntityID:   q.ID,
		EntityName: q.QuotationNumber,
	})
	s.logg.Info(s.logg.WithEntity(ctx, string(enums.EntityTypeQuotation), q.ID), "quotations."+string(action))
}
