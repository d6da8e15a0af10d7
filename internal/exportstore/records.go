package exportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"lessoncut/internal/fileutil"
	"lessoncut/internal/services"
)

// Record describes one finished export on disk.
type Record struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

const recordColumns = `id, project_id, filename, path, size, created_at`

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRecord inserts or replaces rec and writes a JSON sidecar next to the
// exported file. A sidecar write failure is returned after the row is saved.
func (s *Store) SaveRecord(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.ProjectID) == "" {
		return services.Wrap(services.ErrValidation, "exportstore", "save", "record id and project id are required", nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO export_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.ProjectID,
		rec.Filename,
		rec.Path,
		rec.Size,
		rec.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert export record: %w", err)
	}
	if err := WriteSidecar(rec); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// ListByProject returns the records for projectID, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]Record, error) {
	return s.query(ctx,
		`SELECT `+recordColumns+` FROM export_records WHERE project_id = ? ORDER BY created_at DESC`,
		projectID)
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM export_records ORDER BY created_at DESC`)
}

// Find returns the record with id, or services.ErrNotFound.
func (s *Store) Find(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM export_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "exportstore", "find", id, nil)
	}
	if err != nil {
		return Record{}, fmt.Errorf("find export record: %w", err)
	}
	return rec, nil
}

// Deletion reports a removed record. FileErr holds any failure to remove
// the exported file or its sidecar; the row is gone either way.
type Deletion struct {
	Record  Record
	FileErr error
}

// Delete removes the record with id along with its file and sidecar.
func (s *Store) Delete(ctx context.Context, id string) (Deletion, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return Deletion{}, err
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM export_records WHERE id = ?`, id); err != nil {
		return Deletion{}, fmt.Errorf("delete export record: %w", err)
	}
	result := Deletion{Record: rec}
	if strings.TrimSpace(rec.Path) != "" {
		result.FileErr = errors.Join(fileutil.RemoveIfExists(rec.Path), fileutil.RemoveIfExists(SidecarPath(rec.Path)))
	}
	return result, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query export records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec     Record
		created string
	)
	if err := scanner.Scan(&rec.ID, &rec.ProjectID, &rec.Filename, &rec.Path, &rec.Size, &created); err != nil {
		return Record{}, err
	}
	if t, err := time.Parse(timeLayout, created); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

// SidecarPath returns the metadata file written next to an export.
func SidecarPath(outputPath string) string {
	return outputPath + ".json"
}

// WriteSidecar atomically writes rec as JSON next to the exported file.
func WriteSidecar(rec Record) error {
	if strings.TrimSpace(rec.Path) == "" {
		return nil
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(SidecarPath(rec.Path), append(data, '\n'), 0o644)
}
