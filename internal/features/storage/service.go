package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/pkg/utils"

	"go.uber.org/zap"
)

const defaultSignTTL = time.Hour

type StorageService interface {
	Upload(ctx context.Context, caller *string, bucket, path, contentType string, data []byte) (*Object, error)
	Sign(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error)
	Read(ctx context.Context, token, bucket, path string) ([]byte, *Object, error)
	RemoveObjects(ctx context.Context, paths []string) error
}

type StorageServiceImpl struct {
	ObjectRepo  ObjectRepository
	Root        string
	PhotoBucket string
	MaxBytes    int64
	Logger      *zap.Logger
	Now         func() time.Time
}

func NewStorageService(objectRepo ObjectRepository, cfg *config.Config, logger *zap.Logger) StorageService {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		os.MkdirAll(cfg.FSPath, 0755)
	}
	return &StorageServiceImpl{
		ObjectRepo:  objectRepo,
		Root:        cfg.FSPath,
		PhotoBucket: cfg.PhotoBucket,
		MaxBytes:    int64(cfg.MaxUploadMB) << 20,
		Logger:      logger,
		Now:         time.Now,
	}
}

// Upload writes a new object. Existing objects are never overwritten.
func (s *StorageServiceImpl) Upload(ctx context.Context, caller *string, bucket, path, contentType string, data []byte) (*Object, error) {
	if err := validatePath(bucket, path); err != nil {
		return nil, err
	}
	owner := strings.SplitN(path, "/", 2)[0]
	if owner != common_models.GuestOwner && (caller == nil || *caller != owner) {
		return nil, fmt.Errorf("%w: cannot write under %q", common_models.ErrPermission, owner)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", common_models.ErrValidation)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", common_models.ErrValidation, s.MaxBytes>>20)
	}

	dst := s.diskPath(bucket, path)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", common_models.ErrTransient, err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: object %s already exists", common_models.ErrUpload, objectKey(bucket, path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common_models.ErrTransient, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("%w: %v", common_models.ErrTransient, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("%w: %v", common_models.ErrTransient, err)
	}

	object := &Object{
		Bucket:     bucket,
		Path:       path,
		Size:       int64(len(data)),
		MimeType:   contentType,
		UploadedBy: caller,
		CreatedAt:  s.Now().UTC(),
	}
	if err := s.ObjectRepo.Save(ctx, object); err != nil {
		os.Remove(dst)
		return nil, err
	}

	s.Logger.Info("Object stored", zap.String("path", object.Key), zap.Int64("size", object.Size))
	return object, nil
}

// Sign returns a relative URL granting read access until expiry.
func (s *StorageServiceImpl) Sign(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	if err := validatePath(bucket, path); err != nil {
		return "", err
	}
	if _, err := s.ObjectRepo.Get(ctx, bucket, path); err != nil {
		return "", err
	}
	if expiresIn <= 0 {
		expiresIn = defaultSignTTL
	}

	token, err := utils.GenerateObjectToken(bucket, path, s.Now().Add(expiresIn))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/storage/v1/object/signed/%s/%s?token=%s", bucket, path, url.QueryEscape(token)), nil
}

func (s *StorageServiceImpl) Read(ctx context.Context, token, bucket, path string) ([]byte, *Object, error) {
	claims, err := utils.ValidateObjectToken(token)
	if err != nil || claims.Bucket != bucket || claims.Path != path {
		return nil, nil, fmt.Errorf("%w: invalid signature", common_models.ErrPermission)
	}

	object, err := s.ObjectRepo.Get(ctx, bucket, path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(s.diskPath(bucket, path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("object %s: %w", object.Key, common_models.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return data, object, nil
}

// RemoveObjects deletes photo-bucket objects, continuing past failures and
// returning the first one.
func (s *StorageServiceImpl) RemoveObjects(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := s.remove(ctx, s.PhotoBucket, p); err != nil {
			s.Logger.Warn("Failed to remove object", zap.String("path", p), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *StorageServiceImpl) remove(ctx context.Context, bucket, path string) error {
	if err := validatePath(bucket, path); err != nil {
		return err
	}
	if err := os.Remove(s.diskPath(bucket, path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file from disk: %w", err)
	}
	return s.ObjectRepo.Delete(ctx, bucket, path)
}

func (s *StorageServiceImpl) diskPath(bucket, path string) string {
	return filepath.Join(s.Root, bucket, filepath.FromSlash(path))
}

// validatePath requires <owner>/<report>/<file> style keys with no traversal.
func validatePath(bucket, path string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\.`) {
		return fmt.Errorf("%w: invalid bucket %q", common_models.ErrValidation, bucket)
	}
	segments := strings.Split(path, "/")
	if len(segments) < 3 {
		return fmt.Errorf("%w: invalid object path %q", common_models.ErrValidation, path)
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.Contains(seg, `\`) {
			return fmt.Errorf("%w: invalid object path %q", common_models.ErrValidation, path)
		}
	}
	return nil
}
