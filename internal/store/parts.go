package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jogardn/partsdepot/pkg/models"
)

const partColumns = `part_id, part_number, part_name, price, img_url`

func (s *Store) ListParts(ctx context.Context) ([]models.Part, error) {
	return s.queryParts(ctx, `SELECT `+partColumns+` FROM parts ORDER BY part_number`)
}

// SearchParts matches term case-insensitively anywhere in the part name. A term
// that parses as an integer additionally matches that exact part number.
func (s *Store) SearchParts(ctx context.Context, term string) ([]models.Part, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListParts(ctx)
	}

	query := `SELECT ` + partColumns + ` FROM parts WHERE part_name ILIKE $1`
	args := []any{containsPattern(term)}
	if n, err := strconv.ParseInt(term, 10, 64); err == nil {
		query += ` OR part_number = $2`
		args = append(args, n)
	}
	query += ` ORDER BY part_number`

	return s.queryParts(ctx, query, args...)
}

func (s *Store) queryParts(ctx context.Context, query string, args ...any) ([]models.Part, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	defer rows.Close()

	parts := []models.Part{}
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return parts, nil
}

func scanPart(row scanner) (*models.Part, error) {
	var p models.Part
	var img sql.NullString
	if err := row.Scan(&p.ID, &p.PartNumber, &p.Name, &p.Price, &img); err != nil {
		return nil, err
	}
	p.ImgURL = stringPtr(img)
	return &p, nil
}

func (s *Store) GetPart(ctx context.Context, id int64) (*models.Part, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE part_id = $1`, id)
	p, err := scanPart(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get part %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) CreatePart(ctx context.Context, p *models.Part) error {
	query := `
		INSERT INTO parts (part_number, part_name, price, img_url)
		VALUES ($1, $2, $3, $4)
		RETURNING part_id
	`
	err := s.db.QueryRowContext(ctx, query, p.PartNumber, p.Name, p.Price, nullString(p.ImgURL)).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create part: %w", translate(err))
	}
	return nil
}

func (s *Store) UpdatePart(ctx context.Context, p *models.Part) error {
	query := `
		UPDATE parts
		SET part_number = $1, part_name = $2, price = $3, img_url = $4
		WHERE part_id = $5
		RETURNING part_id
	`
	err := s.db.QueryRowContext(ctx, query, p.PartNumber, p.Name, p.Price, nullString(p.ImgURL), p.ID).Scan(&p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update part %d: %w", p.ID, translate(err))
	}
	return nil
}

// DeletePart returns ErrReferenced when order items still point at the part.
func (s *Store) DeletePart(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parts WHERE part_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete part %d: %w", id, translate(err))
	}
	return affectedOne(res)
}
