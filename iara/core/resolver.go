package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const primaryUserQuery = `
SELECT us.pk_uuid
FROM user_account us
JOIN user_account_access_type ua ON ua.user_account_uuid = us.pk_uuid
JOIN access_type ac ON ac.pk_id = ua.access_type_id
WHERE us.factory_id = ?
AND ac.pk_id = (SELECT MIN(pk_id) FROM access_type)
ORDER BY us.pk_uuid
LIMIT 1`

// Resolver answers cross-reference questions from the target store.
type Resolver struct {
	primaryUsers map[int64]uuid.NullUUID
}

func NewResolver() *Resolver {
	return &Resolver{primaryUsers: map[int64]uuid.NullUUID{}}
}

// PrimaryUser picks the factory user holding the access type with the
// smallest id. ok is false when the factory has no such user yet.
func (r *Resolver) PrimaryUser(ctx context.Context, tx *gorm.DB, factoryID int64) (uuid.UUID, bool, error) {
	if cached, ok := r.primaryUsers[factoryID]; ok {
		return cached.UUID, cached.Valid, nil
	}

	var row struct {
		PkUUID uuid.UUID
	}
	res := tx.WithContext(ctx).Raw(primaryUserQuery, factoryID).Scan(&row)
	if res.Error != nil {
		return uuid.Nil, false, fmt.Errorf("resolve primary user of factory %d: %w", factoryID, res.Error)
	}

	found := res.RowsAffected > 0 && row.PkUUID != uuid.Nil
	r.primaryUsers[factoryID] = uuid.NullUUID{UUID: row.PkUUID, Valid: found}
	return row.PkUUID, found, nil
}

// AccessTypeIDs maps access type names to their target ids.
func AccessTypeIDs(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		PkID int64
		Name string
	}
	if err := tx.WithContext(ctx).Raw("SELECT pk_id, name FROM access_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load access types: %w", err)
	}

	ids := make(map[string]int64, len(rows))
	for _, r := range rows {
		ids[r.Name] = r.PkID
	}
	return ids, nil
}

// DeactivationIndex reads the deactivation timestamps already stored in
// table, keyed by keyColumn rendered as text.
func DeactivationIndex(ctx context.Context, tx *gorm.DB, table, keyColumn string) (map[string]time.Time, error) {
	var rows []struct {
		SyncKey       string
		DeactivatedAt time.Time
	}
	query := fmt.Sprintf("SELECT %s AS sync_key, deactivated_at FROM %s WHERE deactivated_at IS NOT NULL", keyColumn, table)
	if err := tx.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load deactivations of %s: %w", table, err)
	}

	index := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		index[r.SyncKey] = r.DeactivatedAt
	}
	return index, nil
}
