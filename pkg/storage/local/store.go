// Package local stores uploaded attachments on the local filesystem.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/nsets/erp-backend/pkg/config"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

var (
	categoryRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	ownerRe    = regexp.MustCompile(`^[a-z0-9]{1,32}$`)
	extRe      = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,10}$`)
)

// Store writes files below root as <category>/<uuid><ext>. The returned
// reference is that relative path and is what callers persist.
type Store struct {
	root     string
	maxBytes int64
	allowed  []string
	logg     *logger.Logger
}

func New(cfg config.AttachmentsConfig, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("attachments dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachments dir: %w", err)
	}
	return &Store{
		root:     cfg.Dir,
		maxBytes: cfg.MaxUploadBytes(),
		allowed:  cfg.AllowedMIMETypes(),
		logg:     logg,
	}, nil
}

// Save validates size and sniffed content type, then writes the file.
func (s *Store) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	return s.save(ctx, category, "", filename, r)
}

// SaveOwned is Save with the stored name prefixed by "<owner>-", so a caller
// can later tell which record a reference was issued for.
func (s *Store) SaveOwned(ctx context.Context, category, owner, filename string, r io.Reader) (string, error) {
	if !ownerRe.MatchString(owner) {
		return "", pkgerrors.Newf(pkgerrors.CodeInternal, "invalid attachment owner %q", owner)
	}
	return s.save(ctx, category, owner+"-", filename, r)
}

func (s *Store) save(ctx context.Context, category, prefix, filename string, r io.Reader) (string, error) {
	if !categoryRe.MatchString(category) {
		return "", pkgerrors.Newf(pkgerrors.CodeInternal, "invalid attachment category %q", category)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "attachment exceeds size limit").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "attachment is empty")
	}

	detected := mimetype.Detect(data)
	if !s.isAllowed(detected) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "attachment type not allowed").
			WithDetails(map[string]any{"content_type": detected.String()})
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !extRe.MatchString(ext) {
		ext = detected.Extension()
	}
	ref := path.Join(category, prefix+uuid.NewString()+ext)

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create attachment dir")
	}
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(ref)), data, 0o644); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write attachment")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"ref":          ref,
			"content_type": detected.String(),
			"bytes":        len(data),
		}), "attachment.saved")
	}
	return ref, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete attachment")
	}
	return nil
}

// Open returns a reader for a stored file along with its detected type.
func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read attachment")
	}
	return io.NopCloser(bytes.NewReader(data)), mimetype.Detect(data).String(), nil
}

func (s *Store) resolve(ref string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(ref))
	if clean == "/" || strings.Count(clean, "/") != 2 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid attachment reference")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *Store) isAllowed(detected *mimetype.MIME) bool {
	if len(s.allowed) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range s.allowed {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}
