package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietanh2810/encore-api/internal/domain"
)

// loadJSON decodes the document at key into out. A missing document leaves
// out untouched and reports found == false.
func loadJSON(ctx context.Context, docs DocumentRepository, key string, out any) (bool, error) {
	doc, err := docs.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("docs.Load %s -> %w", key, err)
	}
	if len(doc.Body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(doc.Body, out); err != nil {
		return false, fmt.Errorf("json.Unmarshal %s -> %w", key, err)
	}

	return true, nil
}

func saveJSON(ctx context.Context, docs DocumentRepository, key string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("json.Marshal %s -> %w", key, err)
	}
	if _, err := docs.Save(ctx, domain.Document{Key: key, Body: body}); err != nil {
		return fmt.Errorf("docs.Save %s -> %w", key, err)
	}

	return nil
}
