// Package yamlfile persists session snapshots as human-editable YAML files.
// Event payloads are kept in their JSON form inside the document, so the
// same Decoder serves every persistence adapter. Envelope metadata is
// optional in hand-authored files; missing IDs are generated on read.
package yamlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/desimkit/desim"
)

const ext = ".yaml"

// document is the on-disk shape of a session snapshot.
type document[S any] struct {
	SessionID string        `yaml:"session_id,omitempty"`
	Initial   S             `yaml:"initial"`
	Cursor    int           `yaml:"cursor"`
	Executed  int           `yaml:"executed"`
	Events    []eventRecord `yaml:"events"`
}

type eventRecord struct {
	ID         string `yaml:"id,omitempty"`
	Name       string `yaml:"name"`
	Data       string `yaml:"data,omitempty"`
	OccurredAt string `yaml:"occurred_at,omitempty"`
}

func checkExt(path string) error {
	if e := filepath.Ext(path); e != ext {
		return fmt.Errorf("unsupported file format: expected %q, got %q", ext, e)
	}
	return nil
}

// Write saves the session's snapshot to the given .yaml file.
func Write[S any](sess *desim.Session[S], path string) error {
	if err := checkExt(path); err != nil {
		return err
	}
	snap, err := sess.Export()
	if err != nil {
		return err
	}

	doc := document[S]{
		SessionID: snap.SessionID,
		Initial:   snap.Initial,
		Cursor:    snap.Cursor,
		Executed:  snap.Executed,
		Events:    make([]eventRecord, 0, len(snap.Events)),
	}
	for _, ev := range snap.Events {
		rec := eventRecord{
			ID:   ev.ID.String(),
			Name: ev.Name,
			Data: string(ev.Data),
		}
		if !ev.OccurredAt.IsZero() {
			rec.OccurredAt = ev.OccurredAt.UTC().Format(time.RFC3339Nano)
		}
		doc.Events = append(doc.Events, rec)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.SessionID, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads a session from the given .yaml file, decoding events through
// the decoder and replaying to the persisted cursor.
func Read[S any](ctx context.Context, dec *desim.Decoder[S], path string, opts ...desim.Option[S]) (*desim.Session[S], error) {
	if err := checkExt(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document[S]
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	snap := &desim.Snapshot[S]{
		SessionID: doc.SessionID,
		Initial:   doc.Initial,
		Cursor:    doc.Cursor,
		Executed:  doc.Executed,
		Events:    make([]desim.SnapshotEvent, 0, len(doc.Events)),
	}
	if snap.SessionID == "" {
		snap.SessionID = uuid.NewString()
	}
	for i, rec := range doc.Events {
		ev := desim.SnapshotEvent{Name: rec.Name, Data: []byte(rec.Data)}
		if rec.ID == "" {
			ev.ID = uuid.New()
		} else if ev.ID, err = uuid.Parse(rec.ID); err != nil {
			return nil, fmt.Errorf("decode %s: event %d: %w", path, i, err)
		}
		if rec.OccurredAt != "" {
			if ev.OccurredAt, err = time.Parse(time.RFC3339Nano, rec.OccurredAt); err != nil {
				return nil, fmt.Errorf("decode %s: event %d: %w", path, i, err)
			}
		}
		snap.Events = append(snap.Events, ev)
	}

	return desim.Import(ctx, snap, dec, opts...)
}
