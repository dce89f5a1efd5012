package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/services/media/internal/storage"
)

type Service struct {
	repo    Repo
	storage storage.MediaStorage
	baseURL string
	logger  apt.Logger
	now     func() time.Time
}

func NewService(repo Repo, backend storage.MediaStorage, baseURL string, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		repo:    repo,
		storage: backend,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Object, error) {
	if req.OwnerType == "" || req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner_type and owner_id are required", ErrInvalidInput)
	}
	if req.Kind == "" {
		req.Kind = KindPhoto
	}
	if req.Kind != KindPhoto && req.Kind != KindSignature {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, req.Kind)
	}

	raw, contentType, err := DecodeData(req.Data, req.ContentType)
	if err != nil {
		return nil, err
	}

	o := &Object{
		ID:          apt.GenerateNewID(),
		OwnerType:   req.OwnerType,
		OwnerID:     req.OwnerID,
		Kind:        req.Kind,
		ContentType: contentType,
		Size:        len(raw),
		Caption:     req.Caption,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedAt:   s.now().UTC(),
	}
	o.Key = path.Join(o.OwnerType, o.OwnerID, o.ID.String()+extension(contentType))

	if err := s.storage.Put(ctx, o.Key, raw); err != nil {
		return nil, fmt.Errorf("store media bytes: %w", err)
	}
	if err := s.repo.Create(ctx, o); err != nil {
		_ = s.storage.Delete(ctx, o.Key)
		return nil, fmt.Errorf("store media metadata: %w", err)
	}
	s.withURL(o)
	s.logger.Info("media stored", "id", o.ID, "owner_type", o.OwnerType, "owner_id", o.OwnerID, "kind", o.Kind, "size", o.Size)
	return o, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Object, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	s.withURL(o)
	return o, nil
}

// Open returns the object metadata with a reader over its bytes. Callers close the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Object, io.ReadCloser, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, o.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return o, rc, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]*Object, error) {
	if ownerType == "" || ownerID == "" {
		return nil, fmt.Errorf("%w: owner_type and owner_id are required", ErrInvalidInput)
	}
	list, err := s.repo.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		s.withURL(o)
	}
	return list, nil
}

func (s *Service) withURL(o *Object) {
	o.URL = s.baseURL + "/media/" + o.ID.String()
}
