package invoices

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

type Service interface {
	List(ctx context.Context, actor *access.Actor) ([]models.Invoice, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Invoice, error)
	Create(ctx context.Context, actor *access.Actor, input Input) (*models.Invoice, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.Invoice, error)
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
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoices repository required")
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
	return &service{repo: params.Repository, tx: params.Tx, activity: params.Activity, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, actor *access.Actor) ([]models.Invoice, error) {
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list invoices")
	}
	if rows == nil {
		rows = []models.Invoice{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, actor *access.Actor, id int64) (*models.Invoice, error) {
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, actor *access.Actor, input Input) (*models.Invoice, error) {
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	inv := input.model()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &inv); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create invoice")
		}
		if err := repo.ReplaceItems(ctx, inv.ID, input.itemModels(inv.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert invoice items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "create invoice")
	}

	s.record(ctx, actor, enums.ActivityActionCreate, &inv)
	return s.load(ctx, inv.ID)
}

func (s *service) Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.Invoice, error) {
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	inv := input.model()
	inv.ID = id

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, &inv); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update invoice")
		}
		if err := repo.ReplaceItems(ctx, id, input.itemModels(id)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replace invoice items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "update invoice")
	}

	s.record(ctx, actor, enums.ActivityActionUpdate, &inv)
	return s.load(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor *access.Actor, id int64) error {
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete invoice")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "delete invoice")
	}
	s.record(ctx, actor, enums.ActivityActionDelete, existing)
	return nil
}

func (s *service) validate(ctx context.Context, input Input) error {
	if err := finance.ValidateLines(input.lines()); err != nil {
		return err
	}
	links := []struct {
		id    *int64
		model any
		name  string
	}{
		{input.QueryID, &models.Query{}, "query"},
		{input.QuotationID, &models.Quotation{}, "quotation"},
		{input.PurchaseOrderID, &models.PurchaseOrder{}, "purchase order"},
	}
	for _, link := range links {
		if link.id == nil {
			continue
		}
		ok, err := s.repo.DocumentExists(ctx, link.model, *link.id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check linked "+link.name)
		}
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "linked %s does not exist", link.name)
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load invoice")
	}
	return inv, nil
}

func (s *service) record(ctx context.Context, actor *access.Actor, action enums.ActivityAction, inv *models.Invoice) {
	name := inv.InvoiceNumber
	if name == "" {
		name = inv.RefNo
	}
	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: enums.EntityTypeInvoice,
		EntityID:   inv.ID,
		EntityName: name,
	})
	s.logg.Info(s.logg.WithEntity(ctx, string(enums.EntityTypeInvoice), inv.ID), "invoices."+string(action))
}
