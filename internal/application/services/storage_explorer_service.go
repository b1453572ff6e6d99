package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

var (
	ErrFolderNameInvalid = errors.New("invalid folder name")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrBucketNotFound    = errors.New("bucket not found")
)

// ExplorerError carries a user-facing message for one of the sentinel errors.
type ExplorerError struct {
	Kind    error
	Message string
}

func (e *ExplorerError) Error() string { return e.Message }
func (e *ExplorerError) Unwrap() error { return e.Kind }

// StorageExplorerService backs the column-based storage explorer.
type StorageExplorerService struct {
	repo        repositories.StorageObjectRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	now         func() time.Time
}

func NewStorageExplorerService(repo repositories.StorageObjectRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *StorageExplorerService {
	return &StorageExplorerService{
		repo:        repo,
		logger:      logger,
		perfTracker: perfTracker,
		now:         time.Now,
	}
}

// ListFolder returns the explorer items of the folder reached through
// openedFolders.
func (s *StorageExplorerService) ListFolder(ctx context.Context, bucketName string, openedFolders []storage.Item) ([]storage.Item, error) {
	marker := s.perfTracker.StartOperation("storage:list_folder", "studio")
	defer marker.Complete()

	bucket, err := s.findBucket(ctx, bucketName)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	prefix := storage.GetPathAlongOpenedFolders(openedFolders, bucketName, false)
	objects, err := s.repo.ListFolder(ctx, bucket.ID, prefix)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to list folder %q: %w", prefix, err)
	}

	items := storage.FormatFolderItems(objects, prefix, s.now())
	marker.AddMetadata("items", len(items))
	return items, nil
}

// CreateFolder validates name, resolves duplicates against the current folder
// listing and writes the placeholder object that keeps the folder alive. It
// returns the new folder's path relative to the bucket.
func (s *StorageExplorerService) CreateFolder(ctx context.Context, bucketName string, openedFolders []storage.Item, name string, autofix bool) (string, error) {
	marker := s.perfTracker.StartOperation("storage:create_folder", "studio")
	defer marker.Complete()

	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ExplorerError{Kind: ErrFolderNameInvalid, Message: "Folder name cannot be empty"}
	}
	if message, invalid := storage.ValidateFolderName(name); invalid {
		return "", &ExplorerError{Kind: ErrFolderNameInvalid, Message: message}
	}

	items, err := s.ListFolder(ctx, bucketName, openedFolders)
	if err != nil {
		marker.SetError(err)
		return "", err
	}

	var notice string
	notifier := storage.NotifierFunc(func(message string) { notice = message })
	finalName, ok := storage.SanitizeNameForDuplicateInColumn(
		[]storage.Column{{Name: bucketName, Items: items}},
		storage.SanitizeOptions{Name: name, Autofix: autofix},
		notifier,
	)
	if !ok {
		return "", &ExplorerError{Kind: ErrDuplicateName, Message: notice}
	}

	path := storage.PathToItem(openedFolders, len(openedFolders), finalName)
	key := path + "/" + storage.EmptyFolderPlaceholder

	bucket, err := s.findBucket(ctx, bucketName)
	if err != nil {
		return "", err
	}
	if err := s.repo.Insert(ctx, bucket.ID, key, storage.Object{}); err != nil {
		marker.SetError(err)
		return "", fmt.Errorf("failed to create folder %q: %w", path, err)
	}

	s.logger.Storage().Info("Created folder", "bucket", bucketName, "path", path, "renamed", finalName != name)
	return path, nil
}

// SanitizeName runs the duplicate-name check on caller supplied columns.
func (s *StorageExplorerService) SanitizeName(columns []storage.Column, opts storage.SanitizeOptions) (string, error) {
	var notice string
	name, ok := storage.SanitizeNameForDuplicateInColumn(columns, opts, storage.NotifierFunc(func(message string) { notice = message }))
	if !ok {
		return "", &ExplorerError{Kind: ErrDuplicateName, Message: notice}
	}
	return name, nil
}

func (s *StorageExplorerService) findBucket(ctx context.Context, name string) (*storage.Bucket, error) {
	bucket, err := s.repo.FindBucket(ctx, name)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &ExplorerError{Kind: ErrBucketNotFound, Message: fmt.Sprintf("Bucket %s not found", name)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bucket %s: %w", name, err)
	}
	return bucket, nil
}
