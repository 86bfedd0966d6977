package dao

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const mirrorSchema = `CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	body BLOB NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);`

// MirrorDAO is the local persistent key-value mirror of remote documents,
// backed by sqlite. It stores whatever version it is given.
type MirrorDAO struct {
	db *sql.DB
}

func NewMirrorDAO(db *sql.DB) *MirrorDAO {
	return &MirrorDAO{
		db: db,
	}
}

func (d *MirrorDAO) CreateTables(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, mirrorSchema)
	return err
}

func (d *MirrorDAO) FindByKey(ctx context.Context, key string) (Document, error) {
	row := d.db.QueryRowContext(ctx, "SELECT key, body, version, updated_at FROM documents WHERE key = ?", key)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}

		return Document{}, err
	}

	return doc, nil
}

func (d *MirrorDAO) FindByPrefix(ctx context.Context, prefix string) ([]Document, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT key, body, version, updated_at FROM documents WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (d *MirrorDAO) Put(ctx context.Context, doc Document) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO documents (key, body, version, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, version = excluded.version, updated_at = excluded.updated_at`,
		doc.Key, doc.Body, doc.Version, doc.UpdatedAt.Format(time.RFC3339Nano))

	return err
}

func (d *MirrorDAO) Delete(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM documents WHERE key = ?", key)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var updatedAt string

	if err := row.Scan(&doc.Key, &doc.Body, &doc.Version, &updatedAt); err != nil {
		return Document{}, err
	}
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return doc, nil
}
