package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrStaleDocument    = errors.New("document was modified concurrently")
)

type Document struct {
	Key       string    `gorm:"primaryKey;size:190"`
	Body      []byte    `gorm:"type:jsonb;not null"`
	Version   int64     `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"not null"`
}

// DocumentDAO is the remote store: one postgres row per document. After every
// committed write it signals the key on the notify channel so other instances
// can refresh.
type DocumentDAO struct {
	db      *gorm.DB
	channel string
}

func NewDocumentDAO(db *gorm.DB, notifyChannel string) *DocumentDAO {
	return &DocumentDAO{
		db:      db,
		channel: notifyChannel,
	}
}

func (d *DocumentDAO) FindByKey(ctx context.Context, key string) (Document, error) {
	var doc Document

	result := d.db.WithContext(ctx).First(&doc, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Document{}, ErrDocumentNotFound
		}

		return Document{}, result.Error
	}

	return doc, nil
}

func (d *DocumentDAO) FindByPrefix(ctx context.Context, prefix string) ([]Document, error) {
	var docs []Document

	result := d.db.WithContext(ctx).
		Where("key LIKE ?", escapeLike(prefix)+"%").
		Order("key").
		Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}

	return docs, nil
}

// Upsert writes the document unconditionally and bumps its version.
func (d *DocumentDAO) Upsert(ctx context.Context, key string, body []byte) (Document, error) {
	saved, err := d.upsert(ctx, key, body)
	if err != nil && isUniqueViolation(err) {
		// Another writer created the row between our read and insert.
		saved, err = d.upsert(ctx, key, body)
	}
	if err != nil {
		return Document{}, err
	}

	d.notify(ctx, key)

	return saved, nil
}

func (d *DocumentDAO) upsert(ctx context.Context, key string, body []byte) (Document, error) {
	var saved Document

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Document
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "key = ?", key)
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		saved = Document{
			Key:       key,
			Body:      body,
			Version:   current.Version + 1,
			UpdatedAt: time.Now().UTC(),
		}
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(&saved).Error
		}

		return tx.Model(&Document{}).Where("key = ?", key).Updates(map[string]interface{}{
			"body":       saved.Body,
			"version":    saved.Version,
			"updated_at": saved.UpdatedAt,
		}).Error
	})

	return saved, err
}

// CompareAndSwap writes only when the stored version still equals expected.
// expected == 0 means the document must not exist yet.
func (d *DocumentDAO) CompareAndSwap(ctx context.Context, key string, body []byte, expected int64) (Document, error) {
	saved := Document{
		Key:       key,
		Body:      body,
		Version:   expected + 1,
		UpdatedAt: time.Now().UTC(),
	}

	if expected == 0 {
		if err := d.db.WithContext(ctx).Create(&saved).Error; err != nil {
			if isUniqueViolation(err) {
				return Document{}, ErrStaleDocument
			}

			return Document{}, err
		}
		d.notify(ctx, key)

		return saved, nil
	}

	result := d.db.WithContext(ctx).Model(&Document{}).
		Where("key = ? AND version = ?", key, expected).
		Updates(map[string]interface{}{
			"body":       saved.Body,
			"version":    saved.Version,
			"updated_at": saved.UpdatedAt,
		})
	if result.Error != nil {
		return Document{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Document{}, ErrStaleDocument
	}
	d.notify(ctx, key)

	return saved, nil
}

func (d *DocumentDAO) notify(ctx context.Context, key string) {
	if d.channel == "" {
		return
	}
	if err := d.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", d.channel, key).Error; err != nil {
		zap.L().Warn("failed to publish document change", zap.String("key", key), zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsTransient reports whether err looks like a connection-level failure rather
// than a problem with the statement itself.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}

	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(fmt.Sprint(err), "connection")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
