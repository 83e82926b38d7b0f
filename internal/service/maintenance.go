package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/database"
	"github.com/jask/jaskrecon/internal/database/repository"
)

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// Reset wipes the rule store and exclusion list. It keeps the schema intact
// so the store can be used right away.
func (s *MaintenanceService) Reset(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	var removed int64
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM kv_store")
		if err != nil {
			return fmt.Errorf("reset kv_store: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	if s.Logger != nil {
		s.Logger.Info("store reset", zap.Int64("keys", removed))
	}
	return removed, nil
}

// StoreStatus describes what the store currently holds.
type StoreStatus struct {
	SchemaVersion uint     `json:"schemaVersion"`
	Keys          []string `json:"keys"`
}

// Status reports the applied migration and the keys in use.
func (s *MaintenanceService) Status(ctx context.Context) (StoreStatus, error) {
	if s.DB == nil {
		return StoreStatus{}, fmt.Errorf("maintenance: db not configured")
	}
	version, err := database.SchemaVersion(s.DB)
	if err != nil {
		return StoreStatus{}, fmt.Errorf("schema version: %w", err)
	}
	keys, err := repository.NewKVRepo(s.DB).Keys(ctx)
	if err != nil {
		return StoreStatus{}, fmt.Errorf("list keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return StoreStatus{SchemaVersion: version, Keys: keys}, nil
}
