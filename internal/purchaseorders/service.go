package purchaseorders

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
	List(ctx context.Context, actor *access.Actor) ([]models.PurchaseOrder, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.PurchaseOrder, error)
	Create(ctx context.Context, actor *access.Actor, input Input) (*models.PurchaseOrder, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.PurchaseOrder, error)
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
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "purchase orders repository required")
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

func (s *service) List(ctx context.Context, actor *access.Actor) ([]models.PurchaseOrder, error) {
	if err := access.Authorize(actor, enums.PermissionPurchaseOrders); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list purchase orders")
	}
	if rows == nil {
		rows = []models.PurchaseOrder{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, actor *access.Actor, id int64) (*models.PurchaseOrder, error) {
	if err := access.Authorize(actor, enums.PermissionPurchaseOrders); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, actor *access.Actor, input Input) (*models.PurchaseOrder, error) {
	if err := access.Authorize(actor, enums.PermissionPurchaseOrders); err != nil {
		return nil, err
	}
	po, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &po); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create purchase order")
		}
		if err := repo.ReplaceItems(ctx, po.ID, input.itemModels(po.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert purchase order items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "create purchase order")
	}

	s.record(ctx, actor, enums.ActivityActionCreate, &po)
	return s.load(ctx, po.ID)
}

func (s *service) Update(ctx context.Context, actor *access.Actor, id int64, input Input) (*models.PurchaseOrder, error) {
	if err := access.Authorize(actor, enums.PermissionPurchaseOrders); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	po, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	po.ID = id

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, &po); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update purchase order")
		}
		if err := repo.ReplaceItems(ctx, id, input.itemModels(id)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replace purchase order items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "update purchase order")
	}

	s.record(ctx, actor, enums.ActivityActionUpdate, &po)
	return s.load(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor *access.Actor, id int64) error {
	if err := access.Authorize(actor, enums.PermissionPurchaseOrders); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete purchase order")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "delete purchase order")
	}
	s.record(ctx, actor, enums.ActivityActionDelete, existing)
	return nil
}

// prepare validates input and fills query_id from the linked quotation when
// the caller only names the quotation.
func (s *service) prepare(ctx context.Context, input Input) (models.PurchaseOrder, error) {
	if err := finance.ValidateLines(input.lines()); err != nil {
		return models.PurchaseOrder{}, err
	}
	if input.FreightCharges.IsNegative() {
		return models.PurchaseOrder{}, pkgerrors.New(pkgerrors.CodeValidation, "freight_charges must not be negative")
	}
	if input.QuotationID != nil {
		queryID, ok, err := s.repo.QuotationQueryID(ctx, *input.QuotationID)
		if err != nil {
			return models.PurchaseOrder{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check linked quotation")
		}
		if !ok {
			return models.PurchaseOrder{}, pkgerrors.New(pkgerrors.CodeValidation, "linked quotation does not exist")
		}
		if input.QueryID == nil {
			input.QueryID = queryID
		}
	}
	return input.model(), nil
}

func (s *service) load(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load purchase order")
	}
	return po, nil
}

func (s *service) record(ctx context.Context, actor *access.Actor, action enums.ActivityAction, po *models.PurchaseOrder) {
	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: enums.EntityTypePurchaseOrder,
		EntityID:   po.ID,
		EntityName: po.PONumber,
	})
	s.logg.Info(s.logg.WithEntity(ctx, string(enums.EntityTypePurchaseOrder), po.ID), "purchase_orders."+string(action))
}
