package oblog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
)

// Append implements Log.
func (l *SQLiteLog) Append(obs ...observe.Observation) error {
	return l.AppendContext(context.Background(), obs...)
}

// AppendContext inserts observations in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are
// silently ignored. Other constraint violations still return errors.
func (l *SQLiteLog) AppendContext(ctx context.Context, obs ...observe.Observation) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append observations: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations
		(id, kind, target_type, target_id, property, value, previous_value, credibility, ts, source, grp, idx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("append observations: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		value, err := marshalValue(o.Value)
		if err != nil {
			return fmt.Errorf("append observation %s: %w", o.ID, err)
		}
		prev, err := marshalValue(o.PreviousValue)
		if err != nil {
			return fmt.Errorf("append observation %s: %w", o.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			o.ID,
			o.Kind.String(),
			o.Target.Type,
			o.Target.ID,
			o.PropertyID,
			value,
			prev,
			o.Credibility,
			o.Timestamp.UTC().Format(time.RFC3339Nano),
			o.Source,
			o.Group,
			o.Index,
		); err != nil {
			return fmt.Errorf("append observation %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append observations: %w", err)
	}
	return nil
}

// Read implements Log.
func (l *SQLiteLog) Read(key ld.Key) ([]observe.Observation, error) {
	return l.ReadContext(context.Background(), key)
}

// ReadContext returns every observation targeting key.
// Results are ordered deterministically: ORDER BY seq ASC.
func (l *SQLiteLog) ReadContext(ctx context.Context, key ld.Key) ([]observe.Observation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, kind, target_type, target_id, property, value, previous_value, credibility, ts, source, grp, idx
		FROM observations
		WHERE target_type = ? AND target_id = ?
		ORDER BY seq ASC
	`, key.Type, key.ID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	out := []observe.Observation{}
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}

// Keys implements Log.
func (l *SQLiteLog) Keys() ([]ld.Key, error) {
	return l.KeysContext(context.Background())
}

// KeysContext returns every target in order of first appearance.
func (l *SQLiteLog) KeysContext(ctx context.Context) ([]ld.Key, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT target_type, target_id
		FROM observations
		GROUP BY target_type, target_id
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	out := []ld.Key{}
	for rows.Next() {
		var k ld.Key
		if err := rows.Scan(&k.Type, &k.ID); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return out, nil
}

func scanObservation(rows *sql.Rows) (observe.Observation, error) {
	var (
		o           observe.Observation
		kind, ts    string
		value, prev sql.NullString
	)
	if err := rows.Scan(
		&o.ID, &kind, &o.Target.Type, &o.Target.ID, &o.PropertyID,
		&value, &prev, &o.Credibility, &ts, &o.Source, &o.Group, &o.Index,
	); err != nil {
		return observe.Observation{}, fmt.Errorf("scan observation: %w", err)
	}

	var err error
	if o.Kind, err = observe.ParseKind(kind); err != nil {
		return observe.Observation{}, fmt.Errorf("scan observation %s: %w", o.ID, err)
	}
	if o.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return observe.Observation{}, fmt.Errorf("scan observation %s: %w", o.ID, err)
	}
	if o.Value, err = unmarshalValue(value); err != nil {
		return observe.Observation{}, fmt.Errorf("scan observation %s: %w", o.ID, err)
	}
	if o.PreviousValue, err = unmarshalValue(prev); err != nil {
		return observe.Observation{}, fmt.Errorf("scan observation %s: %w", o.ID, err)
	}
	return o, nil
}
