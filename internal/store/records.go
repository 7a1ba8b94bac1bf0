package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okgraph/okgraph/internal/record"
)

// Save upserts a record. The instance must already carry a storage id;
// identity assignment is the orchestrator's job, so the store never invents
// keys. The remote identity is re-derived on every save, keeping the unique
// index in step with the latest parse.
func (s *Store) Save(ctx context.Context, inst *record.Instance, identity map[string]any) error {
	return saveRecord(ctx, s.db, inst, identity)
}

// Save is the transactional variant of Store.Save.
func (t *Tx) Save(ctx context.Context, inst *record.Instance, identity map[string]any) error {
	return saveRecord(ctx, t.q, inst, identity)
}

// LookupByRemoteKeys finds the persisted record of an entity type matching a
// remote key/value set. Returns found=false when no such record exists.
func (s *Store) LookupByRemoteKeys(ctx context.Context, entity string, identity map[string]any) (*record.Instance, bool, error) {
	return lookupByRemoteKeys(ctx, s.db, entity, identity)
}

// LookupByRemoteKeys is the transactional variant of Store.LookupByRemoteKeys.
func (t *Tx) LookupByRemoteKeys(ctx context.Context, entity string, identity map[string]any) (*record.Instance, bool, error) {
	return lookupByRemoteKeys(ctx, t.q, entity, identity)
}

// Get returns a record by storage id.
func (s *Store) Get(ctx context.Context, storageID string) (*record.Instance, bool, error) {
	return getRecord(ctx, s.db, storageID)
}

// Get is the transactional variant of Store.Get.
func (t *Tx) Get(ctx context.Context, storageID string) (*record.Instance, bool, error) {
	return getRecord(ctx, t.q, storageID)
}

// List returns all records of an entity type ordered by storage id.
// Returns an empty slice (not nil) when no records exist.
func (s *Store) List(ctx context.Context, entity string) ([]*record.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT storage_id, entity, fields
		FROM records
		WHERE entity = ?
		ORDER BY storage_id ASC
	`, entity)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var instances []*record.Instance
	for rows.Next() {
		inst, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if instances == nil {
		instances = []*record.Instance{}
	}
	return instances, nil
}

func saveRecord(ctx context.Context, q querier, inst *record.Instance, identity map[string]any) error {
	if inst.StorageID == "" {
		return fmt.Errorf("save record: instance has no storage id")
	}

	fieldsJSON, err := marshalFields(inst.Fields)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	identityJSON, err := marshalIdentity(identity)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = q.ExecContext(ctx, `
		INSERT INTO records (storage_id, entity, remote_identity, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO UPDATE SET
			remote_identity = excluded.remote_identity,
			fields = excluded.fields,
			updated_at = excluded.updated_at
	`,
		inst.StorageID,
		inst.Entity,
		identityJSON,
		fieldsJSON,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	return nil
}

func lookupByRemoteKeys(ctx context.Context, q querier, entity string, identity map[string]any) (*record.Instance, bool, error) {
	identityJSON, err := marshalIdentity(identity)
	if err != nil {
		return nil, false, fmt.Errorf("lookup record: %w", err)
	}
	if identityJSON == "" {
		return nil, false, nil
	}

	row := q.QueryRowContext(ctx, `
		SELECT storage_id, entity, fields
		FROM records
		WHERE entity = ? AND remote_identity = ?
	`, entity, identityJSON)

	inst, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

func getRecord(ctx context.Context, q querier, storageID string) (*record.Instance, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT storage_id, entity, fields
		FROM records
		WHERE storage_id = ?
	`, storageID)

	inst, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*record.Instance, error) {
	var storageID, entity, fieldsJSON string
	if err := row.Scan(&storageID, &entity, &fieldsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return nil, err
	}

	return &record.Instance{
		Entity:    entity,
		StorageID: storageID,
		Fields:    fields,
	}, nil
}
