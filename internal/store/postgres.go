package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Postgres stores each collection as a jsonb document table keyed by entity
// id. Entities already serialize to flat records, so no per-entity schema is
// needed.
type Postgres struct {
	db    *sqlx.DB
	table string
}

func NewPostgres(db *sqlx.DB, collection string) *Postgres {
	return &Postgres{db: db, table: collection}
}

// EnsureSchema creates the document tables for all collections.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, collection := range []string{CollectionUsers, CollectionTasks, CollectionProjects, CollectionTeams} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id text PRIMARY KEY,
				doc jsonb NOT NULL
			)
		`, collection)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", collection, err)
		}
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, id string, rec Record) error {
	if id == "" {
		return ErrEmptyID
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`, p.table)
	if _, err := p.db.ExecContext(ctx, query, id, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Record, bool, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, p.table)

	var doc []byte
	err := p.db.GetContext(ctx, &doc, query, id)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode document: %w", err)
	}
	return rec, true, nil
}

func (p *Postgres) List(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s`, p.table)

	var docs [][]byte
	if err := p.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.table)

	result, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (p *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, p.table)

	var exists bool
	if err := p.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, p.table)

	var count int
	if err := p.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
