package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beefline/api/internal/models"
)

var ErrCattleNotFound = errors.New("cattle not found")

type CattleRepository struct {
	pool *pgxpool.Pool
}

func NewCattleRepository(pool *pgxpool.Pool) *CattleRepository {
	return &CattleRepository{pool: pool}
}

const cattleColumns = `id, seller_id, title, description, breed, gender, age_months, weight_kg,
	price, is_negotiable, health_status, vaccination_status, last_vaccination_date,
	health_notes, feeding_history, region, city, location_details,
	is_active, is_sold, sold_date, view_count, created_at, updated_at`

// ListFilter narrows the public listing query. Zero values mean the
// dimension is not filtered.
type ListFilter struct {
	Breed             string
	Gender            string
	Region            string
	HealthStatus      string
	VaccinationStatus *bool
	PriceMin          float64
	PriceMax          float64
	AgeMin            int
	AgeMax            int
	WeightMin         float64
	WeightMax         float64
	Search            string
	SellerID          string
	IncludeInactive   bool
	OrderBy           string
	Limit             int
	Offset            int
}

var orderColumns = map[string]string{
	"price":      "price",
	"age":        "age_months",
	"weight":     "weight_kg",
	"created_at": "created_at",
	"views":      "view_count",
}

func (r *CattleRepository) Create(ctx context.Context, c models.Cattle) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cattle (
			id, seller_id, title, description, breed, gender, age_months, weight_kg,
			price, is_negotiable, health_status, vaccination_status, last_vaccination_date,
			health_notes, feeding_history, region, city, location_details,
			is_active, is_sold, view_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, FALSE, 0, NOW(), NOW()
		)
	`,
		c.ID, c.SellerID, c.Title, c.Description, c.Breed, c.Gender, c.AgeMonths, c.WeightKg,
		c.Price, c.IsNegotiable, c.HealthStatus, c.VaccinationStatus, c.LastVaccinationDate,
		c.HealthNotes, c.FeedingHistory, c.Region, c.City, c.LocationDetails,
		c.IsActive,
	)
	return err
}

func (r *CattleRepository) GetByID(ctx context.Context, id string) (models.Cattle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cattleColumns+` FROM cattle WHERE id = $1`, id)
	return scanCattle(row)
}

func (r *CattleRepository) Update(ctx context.Context, c models.Cattle) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE cattle SET
			title = $2, description = $3, breed = $4, gender = $5, age_months = $6,
			weight_kg = $7, price = $8, is_negotiable = $9, health_status = $10,
			vaccination_status = $11, last_vaccination_date = $12, health_notes = $13,
			feeding_history = $14, region = $15, city = $16, location_details = $17,
			is_active = $18, updated_at = NOW()
		WHERE id = $1
	`,
		c.ID, c.Title, c.Description, c.Breed, c.Gender, c.AgeMonths,
		c.WeightKg, c.Price, c.IsNegotiable, c.HealthStatus,
		c.VaccinationStatus, c.LastVaccinationDate, c.HealthNotes,
		c.FeedingHistory, c.Region, c.City, c.LocationDetails,
		c.IsActive,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCattleNotFound
	}
	return nil
}

func (r *CattleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cattle WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCattleNotFound
	}
	return nil
}

func (r *CattleRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE cattle SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (r *CattleRepository) MarkSold(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE cattle SET is_sold = TRUE, is_active = FALSE, sold_date = NOW(), updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCattleNotFound
	}
	return nil
}

// DeactivateSoldBefore clears the active flag on listings sold before
// the cutoff. Used by the maintenance sweep.
func (r *CattleRepository) DeactivateSoldBefore(ctx context.Context, cutoff string) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE cattle SET is_active = FALSE, updated_at = NOW()
		 WHERE is_sold AND is_active AND sold_date < NOW() - $1::interval`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *CattleRepository) List(ctx context.Context, filter ListFilter) ([]models.Cattle, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !filter.IncludeInactive {
		conds = append(conds, "is_active AND NOT is_sold")
	}
	if filter.SellerID != "" {
		add("seller_id = $%d", filter.SellerID)
	}
	if filter.Breed != "" {
		add("breed = $%d", filter.Breed)
	}
	if filter.Gender != "" {
		add("gender = $%d", filter.Gender)
	}
	if filter.Region != "" {
		add("region = $%d", filter.Region)
	}
	if filter.HealthStatus != "" {
		add("health_status = $%d", filter.HealthStatus)
	}
	if filter.VaccinationStatus != nil {
		add("vaccination_status = $%d", *filter.VaccinationStatus)
	}
	if filter.PriceMin > 0 {
		add("price >= $%d", filter.PriceMin)
	}
	if filter.PriceMax > 0 {
		add("price <= $%d", filter.PriceMax)
	}
	if filter.AgeMin > 0 {
		add("age_months >= $%d", filter.AgeMin)
	}
	if filter.AgeMax > 0 {
		add("age_months <= $%d", filter.AgeMax)
	}
	if filter.WeightMin > 0 {
		add("weight_kg >= $%d", filter.WeightMin)
	}
	if filter.WeightMax > 0 {
		add("weight_kg <= $%d", filter.WeightMax)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR city ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + cattleColumns + ` FROM cattle`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	order, ok := orderColumns[filter.OrderBy]
	if !ok {
		order = "created_at"
	}
	query += " ORDER BY " + order + " DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Cattle
	for rows.Next() {
		c, err := scanCattle(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, c)
	}
	return listings, rows.Err()
}

func scanCattle(row pgx.Row) (models.Cattle, error) {
	var c models.Cattle
	if err := row.Scan(
		&c.ID,
		&c.SellerID,
		&c.Title,
		&c.Description,
		&c.Breed,
		&c.Gender,
		&c.AgeMonths,
		&c.WeightKg,
		&c.Price,
		&c.IsNegotiable,
		&c.HealthStatus,
		&c.VaccinationStatus,
		&c.LastVaccinationDate,
		&c.HealthNotes,
		&c.FeedingHistory,
		&c.Region,
		&c.City,
		&c.LocationDetails,
		&c.IsActive,
		&c.IsSold,
		&c.SoldDate,
		&c.ViewCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Cattle{}, ErrCattleNotFound
		}
		return models.Cattle{}, err
	}
	return c, nil
}
