package grounds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores grounds with pgx. Pricing and add-ons are JSONB columns.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectGround = `SELECT id, owner_id, name, district, village, address, capacity, pitch_type,
	pricing, add_ons, created_at, updated_at FROM grounds`

func (r *PostgresRepository) CreateGround(ctx context.Context, g *models.Ground) error {
	pricing, addOns, err := encodeGroundJSON(g)
	if err != nil {
		return err
	}
	_, err = sqlutil.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO grounds (id, owner_id, name, district, village, address, capacity, pitch_type,
			pricing, add_ons, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		g.ID, g.OwnerID, g.Name, g.District, g.Village, g.Address, g.Capacity, g.PitchType,
		pricing, addOns, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ground: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetGround(ctx context.Context, id uuid.UUID) (*models.Ground, error) {
	row := sqlutil.Conn(ctx, r.pool).QueryRow(ctx, selectGround+` WHERE id = $1`, id)
	g, err := scanGround(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("ground", id)
	}
	return g, err
}

func (r *PostgresRepository) UpdateGround(ctx context.Context, g *models.Ground) error {
	pricing, addOns, err := encodeGroundJSON(g)
	if err != nil {
		return err
	}
	tag, err := sqlutil.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE grounds SET name = $2, district = $3, village = $4, address = $5, capacity = $6,
			pitch_type = $7, pricing = $8, add_ons = $9, updated_at = $10
		WHERE id = $1`,
		g.ID, g.Name, g.District, g.Village, g.Address, g.Capacity, g.PitchType, pricing, addOns, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update ground: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("ground", g.ID)
	}
	return nil
}

func (r *PostgresRepository) ListGroundsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Ground, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx, selectGround+` WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list grounds: %w", err)
	}
	defer rows.Close()

	var out []models.Ground
	for rows.Next() {
		g, err := scanGround(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func encodeGroundJSON(g *models.Ground) ([]byte, []byte, error) {
	pricing, err := json.Marshal(g.Pricing)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal pricing: %w", err)
	}
	addOns := g.AddOns
	if addOns == nil {
		addOns = map[string]int64{}
	}
	addOnsJSON, err := json.Marshal(addOns)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal add-ons: %w", err)
	}
	return pricing, addOnsJSON, nil
}

func scanGround(row pgx.Row) (*models.Ground, error) {
	var (
		g       models.Ground
		pricing []byte
		addOns  []byte
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.District, &g.Village, &g.Address, &g.Capacity,
		&g.PitchType, &pricing, &addOns, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricing, &g.Pricing); err != nil {
		return nil, fmt.Errorf("decode pricing of ground %s: %w", g.ID, err)
	}
	if err := json.Unmarshal(addOns, &g.AddOns); err != nil {
		return nil, fmt.Errorf("decode add-ons of ground %s: %w", g.ID, err)
	}
	if len(g.AddOns) == 0 {
		g.AddOns = nil
	}
	return &g, nil
}
