package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"

	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

const distributionColumns = `d.id, d.path, d.source, d.author, d.digest, d.size, d.added_at`

const packageColumns = `p.id, p.name, p.version, p.source, p.distribution_id`

// distributionRepository implements domain.MetadataBackend using SQLite.
type distributionRepository struct {
	db *sql.DB
}

func newDistributionRepository(db *sql.DB) *distributionRepository {
	return &distributionRepository{db: db}
}

var _ domain.MetadataBackend = (*distributionRepository)(nil)

type scanner interface{ Scan(...any) error }

func scanDistribution(s scanner) (*DistributionModel, error) {
	var m DistributionModel
	err := s.Scan(&m.ID, &m.Path, &m.Source, &m.Author, &m.Digest, &m.Size, &m.AddedAt)
	return &m, err
}

func scanPackage(s scanner) (*PackageModel, error) {
	var m PackageModel
	err := s.Scan(&m.ID, &m.Name, &m.Version, &m.Source, &m.DistributionID)
	return &m, err
}

// FindDistributionByPath retrieves a distribution and its packages.
// Returns DistributionNotFoundError if no distribution has that path.
func (r *distributionRepository) FindDistributionByPath(ctx context.Context, path string) (*domain.Distribution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+distributionColumns+` FROM distributions d WHERE d.path = ?`, path)
	model, err := scanDistribution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.DistributionNotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find distribution by path: %w", err)
	}

	dist := model.toDomain()
	packages, err := r.packagesFor(ctx, dist.ID)
	if err != nil {
		return nil, err
	}
	dist.Packages = packages
	return dist, nil
}

func (r *distributionRepository) packagesFor(ctx context.Context, distID int64) ([]domain.Package, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM packages p WHERE p.distribution_id = ? ORDER BY p.id`, distID)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	packages := []domain.Package{}
	for rows.Next() {
		model, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		packages = append(packages, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}
	return packages, nil
}

// FindPackages returns packages joined with their distribution in a single
// query, newest distribution first.
func (r *distributionRepository) FindPackages(ctx context.Context, filter domain.PackageFilter) ([]domain.PackageRecord, error) {
	query := `SELECT ` + packageColumns + `, ` + distributionColumns + `
		FROM packages p JOIN distributions d ON d.id = p.distribution_id WHERE 1 = 1`
	var args []any

	if filter.Name != "" {
		query += ` AND p.name = ?`
		args = append(args, filter.Name)
	}
	if filter.Source != "" {
		query += ` AND p.source = ?`
		args = append(args, string(filter.Source))
	}

	query += ` ORDER BY d.added_at DESC, d.id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find packages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.PackageRecord
	for rows.Next() {
		var p PackageModel
		var d DistributionModel
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Version, &p.Source, &p.DistributionID,
			&d.ID, &d.Path, &d.Source, &d.Author, &d.Digest, &d.Size, &d.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		records = append(records, domain.PackageRecord{
			Package:      p.toDomain(),
			Distribution: *d.toDomain(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}
	return records, nil
}

// CreateDistributionWithPackages inserts the distribution and its packages
// in one transaction. The UNIQUE(path) constraint turns a concurrent
// duplicate into DuplicatePathError with nothing committed.
func (r *distributionRepository) CreateDistributionWithPackages(ctx context.Context, dist *domain.Distribution) (*domain.Distribution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	model := toDistributionModel(dist)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO distributions (path, source, author, digest, size, added_at) VALUES (?, ?, ?, ?, ?, ?)`,
		model.Path, model.Source, model.Author, model.Digest, model.Size, model.AddedAt,
	)
	if isUniqueViolation(err) {
		return nil, &domain.DuplicatePathError{Path: dist.Path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert distribution: %w", err)
	}
	distID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO packages (name, version, source, distribution_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare package insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	created := *dist
	created.ID = distID
	created.Packages = make([]domain.Package, 0, len(dist.Packages))
	for _, pkg := range dist.Packages {
		res, err := stmt.ExecContext(ctx, pkg.Name, pkg.Version, string(pkg.Source), distID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert package %s: %w", pkg.Name, err)
		}
		pkgID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}
		pkg.ID = pkgID
		pkg.DistributionID = distID
		created.Packages = append(created.Packages, pkg)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit distribution: %w", err)
	}
	committed = true

	log.Debug(log.CatDB, "distribution created", "path", created.Path, "packages", len(created.Packages))
	return &created, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode() == sqlite3.CONSTRAINT_UNIQUE
	}
	return false
}

// DeleteDistribution deletes the distribution row; packages follow by cascade.
// Returns DistributionNotFoundError if the row is already gone.
func (r *distributionRepository) DeleteDistribution(ctx context.Context, dist *domain.Distribution) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM distributions WHERE path = ?`, dist.Path)
	if err != nil {
		return fmt.Errorf("failed to delete distribution: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.DistributionNotFoundError{Path: dist.Path}
	}

	log.Debug(log.CatDB, "distribution deleted", "path", dist.Path)
	return nil
}

// ListDistributions returns every distribution with its packages, by path.
func (r *distributionRepository) ListDistributions(ctx context.Context) ([]*domain.Distribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+distributionColumns+` FROM distributions d ORDER BY d.path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}

	var dists []*domain.Distribution
	byID := make(map[int64]*domain.Distribution)
	for rows.Next() {
		model, err := scanDistribution(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		dist := model.toDomain()
		dist.Packages = []domain.Package{}
		dists = append(dists, dist)
		byID[dist.ID] = dist
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating distribution rows: %w", err)
	}
	_ = rows.Close()

	pkgRows, err := r.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages p ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer func() { _ = pkgRows.Close() }()

	for pkgRows.Next() {
		model, err := scanPackage(pkgRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		if dist, ok := byID[model.DistributionID]; ok {
			dist.Packages = append(dist.Packages, model.toDomain())
		}
	}
	if err := pkgRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}
	return dists, nil
}
