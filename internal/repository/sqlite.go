package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Betucciny/predictive-module/internal/logging"
)

// SQLiteConfig names the tables and exclusion list the sqlite Repository
// reads from. Table names are never interpolated with request data, only
// with this deployment-time configuration.
type SQLiteConfig struct {
	DSN                     string
	TableInventoryMovements string
	TableClients            string
	TableProducts           string
	ExcludedClients         []string
}

// SQLite is a Repository backed by modernc.org/sqlite (pure Go, no cgo).
// Every query parameterizes caller-supplied values (search terms, ids,
// excluded-client lists) with bound placeholders; table names come only
// from SQLiteConfig, never from a request.
type SQLite struct {
	db  *sql.DB
	cfg SQLiteConfig
}

// OpenSQLite opens (but does not migrate) the sqlite database at cfg.DSN.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	db, err := sql.Open("sqlite", cfg.DSN+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLite{db: db, cfg: cfg}, nil
}

// Close implements Repository.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// excludedClause builds a parameterized "column NOT IN (?, ?, ...)" fragment
// for the configured excluded client ids, never concatenating the ids
// themselves into the query text. column is the qualified client-id column.
func (s *SQLite) excludedClause(column string) (string, []interface{}) {
	if len(s.cfg.ExcludedClients) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(s.cfg.ExcludedClients))
	args := make([]interface{}, len(s.cfg.ExcludedClients))
	for i, id := range s.cfg.ExcludedClients {
		placeholders[i] = "?"
		args[i] = id
	}
	return fmt.Sprintf(" AND %s NOT IN (%s)", column, strings.Join(placeholders, ", ")), args
}

// BuildClientProductMatrix implements Repository.
func (s *SQLite) BuildClientProductMatrix(ctx context.Context) ([]Interaction, error) {
	clause, excludedArgs := s.excludedClause("m.client_id")
	query := fmt.Sprintf(`
		SELECT m.client_id, m.product_id, SUM(m.quantity) AS qty
		  FROM %s m
		 WHERE m.cancelled = 0%s
		 GROUP BY m.client_id, m.product_id
	`, s.cfg.TableInventoryMovements, clause)

	rows, err := s.db.QueryContext(ctx, query, excludedArgs...)
	if err != nil {
		return nil, fmt.Errorf("build client-product matrix: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ClientID, &in.ProductID, &in.Quantity); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return out, nil
}

// GetClients implements Repository.
func (s *SQLite) GetClients(ctx context.Context, search string, page, pageSize int) ([]ClientRow, int, error) {
	clause, excludedArgs := s.excludedClause("c.id")
	searchClause := ""
	var searchArgs []interface{}
	if search != "" {
		searchClause = " AND (c.name LIKE ? OR c.id LIKE ?)"
		like := "%" + search + "%"
		searchArgs = []interface{}{like, like}
	}

	where := fmt.Sprintf("WHERE c.generic_public = 0%s%s", clause, searchClause)
	args := append(append([]interface{}{}, excludedArgs...), searchArgs...)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s c %s`, s.cfg.TableClients, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT c.id, c.name, c.email FROM %s c %s
		 ORDER BY c.id ASC
		 LIMIT ? OFFSET ?
	`, s.cfg.TableClients, where)
	listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []ClientRow
	for rows.Next() {
		var row ClientRow
		var email sql.NullString
		if err := rows.Scan(&row.ID, &row.Name, &email); err != nil {
			return nil, 0, fmt.Errorf("scan client row: %w", err)
		}
		row.Email = email.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate client rows: %w", err)
	}
	return out, total, nil
}

// GetProducts implements Repository.
func (s *SQLite) GetProducts(ctx context.Context, search string, page, pageSize int) ([]ProductRow, int, error) {
	where := ""
	var args []interface{}
	if search != "" {
		where = "WHERE p.description LIKE ? OR p.id LIKE ?"
		like := "%" + search + "%"
		args = []interface{}{like, like}
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s p %s`, s.cfg.TableProducts, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT p.id, p.description, p.price FROM %s p %s
		 ORDER BY p.id ASC
		 LIMIT ? OFFSET ?
	`, s.cfg.TableProducts, where)
	listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []ProductRow
	for rows.Next() {
		var row ProductRow
		if err := rows.Scan(&row.ID, &row.Description, &row.Price); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return out, total, nil
}

// GetClientByID implements Repository.
func (s *SQLite) GetClientByID(ctx context.Context, id string) (ClientRow, bool, error) {
	query := fmt.Sprintf(`SELECT id, name, email FROM %s WHERE id = ?`, s.cfg.TableClients)
	var row ClientRow
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.Name, &email)
	if err == sql.ErrNoRows {
		return ClientRow{}, false, nil
	}
	if err != nil {
		return ClientRow{}, false, fmt.Errorf("get client by id: %w", err)
	}
	row.Email = email.String
	return row, true, nil
}

// GetProductByID implements Repository.
func (s *SQLite) GetProductByID(ctx context.Context, id string) (ProductRow, bool, error) {
	query := fmt.Sprintf(`SELECT id, description, price FROM %s WHERE id = ?`, s.cfg.TableProducts)
	var row ProductRow
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.Description, &row.Price)
	if err == sql.ErrNoRows {
		return ProductRow{}, false, nil
	}
	if err != nil {
		return ProductRow{}, false, fmt.Errorf("get product by id: %w", err)
	}
	return row, true, nil
}

// Migrate creates the schema if it does not already exist. It is exported
// so cmd/server can provision a fresh database on first run.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+s.cfg.TableClients+` (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			email          TEXT,
			generic_public INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS `+s.cfg.TableProducts+` (
			id          TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			price       REAL NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS `+s.cfg.TableInventoryMovements+` (
			client_id  TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity   REAL NOT NULL DEFAULT 0,
			cancelled  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_movements_client ON `+s.cfg.TableInventoryMovements+`(client_id);
		CREATE INDEX IF NOT EXISTS idx_movements_product ON `+s.cfg.TableInventoryMovements+`(product_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logging.Info().Str("dsn", s.cfg.DSN).Msg("repository: schema ready")
	return nil
}
