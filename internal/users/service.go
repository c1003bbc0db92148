package users

import (
	"context"
	"errors"
	"strings"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/security"
	"gorm.io/gorm"
)

const generatedSeedPasswordLength = 16

// Service is the admin-only account management surface.
type Service interface {
	List(ctx context.Context, actor *access.Actor) ([]UserDTO, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*UserDTO, error)
	Create(ctx context.Context, actor *access.Actor, input CreateInput) (*UserDTO, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input UpdateInput) (*UserDTO, error)
	SetPassword(ctx context.Context, actor *access.Actor, id int64, password string) error
	Deactivate(ctx context.Context, actor *access.Actor, id int64) error
	EnsureSeedAdmin(ctx context.Context, seed config.SeedAdminConfig) (*SeedResult, error)
}

// SeedResult reports what EnsureSeedAdmin did. GeneratedPassword is only set
// when no password was configured.
type SeedResult struct {
	Created           bool
	Username          string
	GeneratedPassword string
}

type ServiceParams struct {
	Repository Repository
	Tx         db.TxRunner
	Password   config.PasswordConfig
	Activity   activity.Recorder
	Logger     *logger.Logger
}

type service struct {
	repo     Repository
	tx       db.TxRunner
	password config.PasswordConfig
	activity activity.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
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
		password: params.Password,
		activity: params.Activity,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, actor *access.Actor) ([]UserDTO, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list users")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, actor *access.Actor, id int64) (*UserDTO, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, actor *access.Actor, input CreateInput) (*UserDTO, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	username := normalizeUsername(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	role, err := enums.ParseRole(string(input.Role))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	perms := dbtypes.DefaultPermissions()
	if input.Permissions != nil {
		perms = *input.Permissions
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        normalizeEmail(input.Email),
		FullName:     strings.TrimSpace(input.FullName),
		Role:         role,
		Permissions:  perms,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "username %q already exists", username)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create user")
	}

	s.record(ctx, actor, enums.ActivityActionCreate, user, "")
	s.logg.Info(s.logg.WithEntity(ctx, "user", user.ID), "users.created")
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor *access.Actor, id int64, input UpdateInput) (*UserDTO, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Email != nil {
		fields["email"] = normalizeEmail(input.Email)
	}
	if input.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Role != nil {
		role, err := enums.ParseRole(string(*input.Role))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		if actor.UserID == id && role != user.Role {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot change your own role")
		}
		fields["role"] = role
	}
	if input.Permissions != nil {
		fields["permissions"] = *input.Permissions
	}
	if input.IsActive != nil {
		if actor.UserID == id && !*input.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate yourself")
		}
		fields["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update user")
	}

	s.record(ctx, actor, enums.ActivityActionUpdate, user, "")
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) SetPassword(ctx context.Context, actor *access.Actor, id int64, password string) error {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update password")
	}
	s.record(ctx, actor, enums.ActivityActionUpdate, user, "password changed")
	return nil
}

func (s *service) Deactivate(ctx context.Context, actor *access.Actor, id int64) error {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return err
	}
	if actor.UserID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate yourself")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "deactivate user")
	}
	s.record(ctx, actor, enums.ActivityActionDelete, user, "deactivated")
	return nil
}

// EnsureSeedAdmin creates the first administrator when the users table is empty.
func (s *service) EnsureSeedAdmin(ctx context.Context, seed config.SeedAdminConfig) (*SeedResult, error) {
	username := normalizeUsername(seed.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seed admin username is required")
	}
	result := &SeedResult{Username: username}

	password := seed.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(generatedSeedPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate seed password")
		}
		password = generated
		result.GeneratedPassword = generated
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seed admin password")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count users")
		}
		if count > 0 {
			return nil
		}
		admin := &models.User{
			Username:     username,
			PasswordHash: hash,
			Email:        normalizeEmail(&seed.Email),
			FullName:     strings.TrimSpace(seed.FullName),
			Role:         enums.RoleAdmin,
			Permissions:  dbtypes.FullPermissions(),
			IsActive:     true,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create seed admin")
		}
		result.Created = true
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "seed admin")
	}
	if !result.Created {
		result.GeneratedPassword = ""
		return result, nil
	}

	ctx = s.logg.WithUsername(ctx, username)
	if result.GeneratedPassword != "" {
		s.logg.Warn(ctx, "users.seed_admin_created_with_generated_password")
	} else {
		s.logg.Info(ctx, "users.seed_admin_created")
	}
	return result, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "user %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	return user, nil
}

func (s *service) record(ctx context.Context, actor *access.Actor, action enums.ActivityAction, user *models.User, details string) {
	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: enums.EntityTypeUser,
		EntityID:   user.ID,
		EntityName: user.Username,
		Details:    details,
	})
}
