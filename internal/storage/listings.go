package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/classifieds/internal/models"
)

const listingColumns = `id, owner_uid, title, price, category, description, images, created_at`

func scanListing(row scanner) (*models.Listing, error) {
	var (
		l      models.Listing
		images []byte
	)
	if err := row.Scan(&l.ID, &l.OwnerUID, &l.Title, &l.Price, &l.Category,
		&l.Description, &images, &l.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &l.Images); err != nil {
		return nil, err
	}
	if l.Images == nil {
		l.Images = []models.Image{}
	}
	return &l, nil
}

func marshalImages(images []models.Image) ([]byte, error) {
	if images == nil {
		images = []models.Image{}
	}
	return json.Marshal(images)
}

// CreateListing сохраняет объявление, заполняя ID и CreatedAt.
func (s *Storage) CreateListing(ctx context.Context, listing *models.Listing) (string, error) {
	const op = "storage.CreateListing"

	images, err := marshalImages(listing.Images)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO listings (owner_uid, title, price, category, description, images)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, created_at`
	err = s.DB.QueryRowContext(ctx, query,
		listing.OwnerUID, listing.Title, listing.Price, listing.Category,
		listing.Description, images,
	).Scan(&listing.ID, &listing.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return listing.ID, nil
}

// GetListing возвращает объявление по ID.
func (s *Storage) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	const op = "storage.GetListing"
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l, err := scanListing(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrListingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// ListListings возвращает страницу объявлений, новые первыми.
func (s *Storage) ListListings(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	const op = "storage.ListListings"
	query := `SELECT ` + listingColumns + ` FROM listings
			  ORDER BY created_at DESC, id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListListingsByOwner возвращает все объявления владельца, новые первыми.
func (s *Storage) ListListingsByOwner(ctx context.Context, ownerUID string) ([]*models.Listing, error) {
	const op = "storage.ListListingsByOwner"
	query := `SELECT ` + listingColumns + ` FROM listings
			  WHERE owner_uid = $1
			  ORDER BY created_at DESC, id`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func collectListings(rows *sql.Rows) ([]*models.Listing, error) {
	defer func() {
		_ = rows.Close()
	}()
	res := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateListing перезаписывает редактируемые поля и изображения объявления.
func (s *Storage) UpdateListing(ctx context.Context, listing *models.Listing) error {
	const op = "storage.UpdateListing"

	images, err := marshalImages(listing.Images)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE listings
			  SET title = $1, price = $2, category = $3, description = $4, images = $5
			  WHERE id = $6`
	res, err := s.DB.ExecContext(ctx, query,
		listing.Title, listing.Price, listing.Category, listing.Description, images, listing.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrListingNotFound)
	}
	return nil
}

// DeleteListing удаляет объявление.
func (s *Storage) DeleteListing(ctx context.Context, id string) error {
	const op = "storage.DeleteListing"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrListingNotFound)
	}
	return nil
}
