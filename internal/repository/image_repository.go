package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beefline/api/internal/models"
)

var (
	ErrImageNotFound = errors.New("image not found")

	// ErrPrimaryInvariant reports a listing whose image set holds more
	// than one primary flag, or none despite having images, after a
	// primary write committed. It indicates a bug in the write path,
	// never bad user input.
	ErrPrimaryInvariant = errors.New("primary image invariant violated")
)

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

const imageColumns = `id, cattle_id, bucket, object_key, thumbnail_key, filename, size_bytes, caption, is_primary, uploaded_at`

// Create inserts an image record. When the record arrives flagged
// primary, existing siblings are cleared inside the same transaction so
// the invariant already holds the moment the row becomes visible.
func (r *ImageRepository) Create(ctx context.Context, img models.CattleImage) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if img.IsPrimary {
		if err := lockListingImages(ctx, tx, img.CattleID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE cattle_images SET is_primary = FALSE WHERE cattle_id = $1 AND is_primary`,
			img.CattleID,
		); err != nil {
			return fmt.Errorf("clear siblings: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cattle_images (
			id, cattle_id, bucket, object_key, thumbnail_key, filename, size_bytes, caption, is_primary, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`,
		img.ID,
		img.CattleID,
		img.Bucket,
		img.ObjectKey,
		img.ThumbnailKey,
		img.Filename,
		img.SizeBytes,
		img.Caption,
		img.IsPrimary,
	); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	return tx.Commit(ctx)
}

// SetPrimary atomically clears the primary flag on every sibling of the
// listing and sets it on the target. Re-running it for the record that
// is already primary is a no-op.
func (r *ImageRepository) SetPrimary(ctx context.Context, cattleID, imageID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockListingImages(ctx, tx, cattleID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE cattle_images SET is_primary = FALSE WHERE cattle_id = $1 AND id != $2 AND is_primary`,
		cattleID, imageID,
	); err != nil {
		return fmt.Errorf("clear siblings: %w", err)
	}

	cmd, err := tx.Exec(ctx,
		`UPDATE cattle_images SET is_primary = TRUE WHERE cattle_id = $1 AND id = $2`,
		cattleID, imageID,
	)
	if err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}

	return tx.Commit(ctx)
}

// lockListingImages takes row locks on the listing's image set so two
// concurrent primary writes serialize instead of both observing zero
// primaries.
func lockListingImages(ctx context.Context, tx pgx.Tx, cattleID string) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM cattle_images WHERE cattle_id = $1 FOR UPDATE`,
		cattleID,
	)
	if err != nil {
		return fmt.Errorf("lock listing images: %w", err)
	}
	rows.Close()
	return rows.Err()
}

// CountPrimary exists as a consistency assertion for tests and the
// defensive check after primary writes.
func (r *ImageRepository) CountPrimary(ctx context.Context, cattleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cattle_images WHERE cattle_id = $1 AND is_primary`,
		cattleID,
	).Scan(&count)
	return count, err
}

func (r *ImageRepository) GetByID(ctx context.Context, cattleID, imageID string) (models.CattleImage, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM cattle_images WHERE cattle_id = $1 AND id = $2`,
		cattleID, imageID,
	)
	return scanImage(row)
}

func (r *ImageRepository) ListByCattle(ctx context.Context, cattleID string) ([]models.CattleImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+imageColumns+` FROM cattle_images WHERE cattle_id = $1 ORDER BY is_primary DESC, uploaded_at`,
		cattleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.CattleImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// Primary returns the flagged image for a listing, falling back to the
// earliest upload. ErrImageNotFound means the listing has no images.
func (r *ImageRepository) Primary(ctx context.Context, cattleID string) (models.CattleImage, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM cattle_images WHERE cattle_id = $1
		 ORDER BY is_primary DESC, uploaded_at
		 LIMIT 1`,
		cattleID,
	)
	return scanImage(row)
}

func (r *ImageRepository) Delete(ctx context.Context, cattleID, imageID string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM cattle_images WHERE cattle_id = $1 AND id = $2`,
		cattleID, imageID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func scanImage(row pgx.Row) (models.CattleImage, error) {
	var img models.CattleImage
	if err := row.Scan(
		&img.ID,
		&img.CattleID,
		&img.Bucket,
		&img.ObjectKey,
		&img.ThumbnailKey,
		&img.Filename,
		&img.SizeBytes,
		&img.Caption,
		&img.IsPrimary,
		&img.UploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CattleImage{}, ErrImageNotFound
		}
		return models.CattleImage{}, err
	}
	return img, nil
}
