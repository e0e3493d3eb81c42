package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

/* DB fetching */

// fetch a single model by primary key on db (which may be a transaction)
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, db *gorm.DB, id any, associations ...string) (*T, error) {
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.Where("id = ?", id).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
