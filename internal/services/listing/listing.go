// Package listing реализует работу с объявлениями: создание, просмотр,
// изменение и удаление. Менять и удалять объявление может только владелец.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/storage"
)

// Ограничения постраничной выдачи.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	// ErrNotFound объявление не найдено.
	ErrNotFound = errors.New("listing not found")
	// ErrForbidden объявление принадлежит другому пользователю.
	ErrForbidden = errors.New("listing belongs to another user")
	// ErrUpstream ошибка хранилища изображений.
	ErrUpstream = errors.New("upstream failure")
)

// Store хранилище объявлений.
type Store interface {
	CreateListing(ctx context.Context, listing *models.Listing) (string, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, limit, offset int) ([]*models.Listing, error)
	ListListingsByOwner(ctx context.Context, ownerUID string) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// Cache кеш объявлений.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ImageStore хранилище изображений объявлений.
type ImageStore interface {
	Upload(ctx context.Context, localPath string) (models.Image, error)
	Delete(ctx context.Context, id string) error
}

// Service бизнес-логика объявлений.
type Service struct {
	log      *slog.Logger
	store    Store
	cache    Cache
	images   ImageStore
	cacheTTL time.Duration
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, store Store, cache Cache, images ImageStore, cacheTTL time.Duration) *Service {
	return &Service{
		log:      log,
		store:    store,
		cache:    cache,
		images:   images,
		cacheTTL: cacheTTL,
	}
}

func cacheKey(id string) string {
	return "listing:" + id
}

// Create загружает изображения по порядку и сохраняет объявление владельца.
//
// Если сохранить не удалось, уже загруженные изображения удаляются.
func (s *Service) Create(ctx context.Context, ownerUID string, fields models.ListingFields,
	imagePaths []string) (*models.Listing, error) {
	const op = "listing.Create"

	images := make([]models.Image, 0, len(imagePaths))
	for _, p := range imagePaths {
		img, err := s.images.Upload(ctx, p)
		if err != nil {
			s.cleanup(ctx, images)
			return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
		}
		images = append(images, img)
	}

	l := &models.Listing{
		OwnerUID:    ownerUID,
		Title:       fields.Title,
		Price:       fields.Price,
		Category:    fields.Category,
		Description: fields.Description,
		Images:      images,
	}
	if _, err := s.store.CreateListing(ctx, l); err != nil {
		s.cleanup(ctx, images)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// Get возвращает объявление, сначала пытаясь прочитать его из кеша.
func (s *Service) Get(ctx context.Context, id string) (*models.Listing, error) {
	const op = "listing.Get"
	log := s.log.With(slog.String("op", op), slog.String("listing_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var cached models.Listing
	found, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		log.Warn("failed to read listing from cache", sl.Err(err))
	}
	if found {
		log.Debug("cache hit")
		return &cached, nil
	}

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, cacheKey(id), l, s.cacheTTL); err != nil {
		log.Warn("failed to cache listing", sl.Err(err))
	}
	return l, nil
}

// List возвращает страницу всех объявлений, новые первыми.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	const op = "listing.List"
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.store.ListListings(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListMine возвращает объявления владельца.
func (s *Service) ListMine(ctx context.Context, ownerUID string) ([]*models.Listing, error) {
	const op = "listing.ListMine"
	res, err := s.store.ListListingsByOwner(ctx, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Update меняет поля объявления. Изображения не меняются.
func (s *Service) Update(ctx context.Context, userUID, id string, fields models.ListingFields) (*models.Listing, error) {
	const op = "listing.Update"

	l, err := s.owned(ctx, userUID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.Title = fields.Title
	l.Price = fields.Price
	l.Category = fields.Category
	l.Description = fields.Description

	if err = s.store.UpdateListing(ctx, l); err != nil {
		if errors.Is(err, storage.ErrListingNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	return l, nil
}

// Delete удаляет объявление и его изображения.
//
// Ошибки удаления изображений только логируются.
func (s *Service) Delete(ctx context.Context, userUID, id string) error {
	const op = "listing.Delete"

	l, err := s.owned(ctx, userUID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.store.DeleteListing(ctx, id); err != nil {
		if errors.Is(err, storage.ErrListingNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	s.cleanup(ctx, l.Images)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if errors.Is(err, storage.ErrListingNotFound) {
		return nil, ErrNotFound
	}
	return l, err
}

func (s *Service) owned(ctx context.Context, userUID, id string) (*models.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerUID != userUID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate listing cache", slog.String("listing_id", id), sl.Err(err))
	}
}

func (s *Service) cleanup(ctx context.Context, images []models.Image) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			s.log.Warn("failed to delete image", slog.String("image_id", img.ID), sl.Err(err))
		}
	}
}
