package suggestions

import (
	"context"
	"strings"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service serves the autocomplete pools learned from query input.
type Service interface {
	List(ctx context.Context, actor *access.Actor, kind string) ([]string, error)
	Learn(ctx context.Context, tx *gorm.DB, input LearnInput) error
}

// LearnInput carries the raw query fields the pools are fed from.
type LearnInput struct {
	OrgDepartment string
	ClientName    string
	QuerySentTo   string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "suggestions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, actor *access.Actor, kind string) ([]string, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	parsed, err := enums.ParseSuggestionKind(kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid suggestion type")
	}
	values, err := s.repo.List(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list suggestions")
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// Learn merges the org, client and supplier values into their pools using
// the caller's transaction.
func (s *service) Learn(ctx context.Context, tx *gorm.DB, input LearnInput) error {
	repo := s.repo.WithTx(tx)
	pools := map[enums.SuggestionKind][]string{
		enums.SuggestionKindOrg:      distinct([]string{input.OrgDepartment}),
		enums.SuggestionKindClient:   distinct([]string{input.ClientName}),
		enums.SuggestionKindSupplier: distinct(SplitSuppliers(input.QuerySentTo)),
	}
	for _, kind := range []enums.SuggestionKind{enums.SuggestionKindOrg, enums.SuggestionKindClient, enums.SuggestionKindSupplier} {
		if err := repo.Merge(ctx, kind, pools[kind]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "merge suggestions")
		}
	}
	return nil
}

// SplitSuppliers breaks the free-text "sent to" field on commas and newlines.
func SplitSuppliers(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ';'
	})
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
