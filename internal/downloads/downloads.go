// Package downloads queues media files for offline use and fetches them in
// the background.
package downloads

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	dbutil "github.com/tessro/finch/internal/db"
)

// Job states.
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// ErrNotFound is returned for an unknown job id.
var ErrNotFound = errors.New("download not found")

// cancelledMessage is the error recorded on jobs stopped by Cancel.
const cancelledMessage = "cancelled"

// Job is one queued file.
type Job struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	Bytes     int64     `json:"bytes"`
	Total     int64     `json:"total"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Percent returns download progress, 0 when the size is unknown.
func (j *Job) Percent() float64 {
	if j.Total <= 0 {
		if j.Status == StatusCompleted {
			return 100
		}
		return 0
	}
	return float64(j.Bytes) / float64(j.Total) * 100
}

// Describe renders sizes and age for listings.
func (j *Job) Describe() string {
	size := humanize.IBytes(uint64(max(j.Bytes, 0)))
	if j.Total > 0 {
		size += " / " + humanize.IBytes(uint64(j.Total))
	}
	return fmt.Sprintf("%s, updated %s", size, humanize.Time(j.UpdatedAt))
}

// Manager provides database operations for download jobs.
type Manager struct {
	db *sql.DB
}

// New creates the downloads table if needed.
func New(db *sql.DB) (*Manager, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			bytes INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
	`)
	if err != nil {
		return nil, fmt.Errorf("create downloads table: %w", err)
	}
	return &Manager{db: db}, nil
}

// Enqueue adds a pending job. An item already pending or downloading to
// the same path is not queued twice.
func (m *Manager) Enqueue(itemID, name, path string) (int64, error) {
	var id int64
	err := dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			SELECT id FROM downloads
			WHERE item_id = ? AND path = ? AND status IN (?, ?)
		`, itemID, path, StatusPending, StatusDownloading).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		now := time.Now().Unix()
		res, err := tx.Exec(`
			INSERT INTO downloads (item_id, name, path, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, itemID, name, path, StatusPending, now, now)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

const selectJob = `SELECT id, item_id, name, path, status, bytes, total, error, created_at, updated_at FROM downloads`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*Job, error) {
	var j Job
	var errMsg sql.NullString
	var created, updated int64
	if err := s.Scan(&j.ID, &j.ItemID, &j.Name, &j.Path, &j.Status, &j.Bytes, &j.Total, &errMsg, &created, &updated); err != nil {
		return nil, err
	}
	j.Error = dbutil.NullStringValue(errMsg)
	j.CreatedAt = time.Unix(created, 0)
	j.UpdatedAt = time.Unix(updated, 0)
	return &j, nil
}

// Get returns a job by id.
func (m *Manager) Get(id int64) (*Job, error) {
	j, err := scanJob(m.db.QueryRow(selectJob+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

// List returns all jobs, oldest first.
func (m *Manager) List() ([]Job, error) {
	rows, err := m.db.Query(selectJob + ` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// Cancel stops a pending or running job. A running worker notices on its
// next progress update.
func (m *Manager) Cancel(id int64) error {
	res, err := m.db.Exec(`
		UPDATE downloads SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, StatusFailed, cancelledMessage, time.Now().Unix(), id, StatusPending, StatusDownloading)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := m.Get(id); err != nil {
			return err
		}
		return fmt.Errorf("download %d is not active", id)
	}
	return nil
}

// Remove deletes a job record. Downloaded files are left alone.
func (m *Manager) Remove(id int64) error {
	res, err := m.db.Exec(`DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Retry puts a failed job back in the queue.
func (m *Manager) Retry(id int64) error {
	res, err := m.db.Exec(`
		UPDATE downloads SET status = ?, error = NULL, bytes = 0, updated_at = ?
		WHERE id = ? AND status = ?
	`, StatusPending, time.Now().Unix(), id, StatusFailed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("download %d has not failed", id)
	}
	return nil
}

// claimNext marks the oldest pending job as downloading and returns it, or
// nil when the queue is empty.
func (m *Manager) claimNext() (*Job, error) {
	var job *Job
	err := dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		j, err := scanJob(tx.QueryRow(selectJob+` WHERE status = ? ORDER BY id LIMIT 1`, StatusPending))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		now := time.Now()
		if _, err := tx.Exec(`UPDATE downloads SET status = ?, updated_at = ? WHERE id = ?`,
			StatusDownloading, now.Unix(), j.ID); err != nil {
			return err
		}
		j.Status = StatusDownloading
		j.UpdatedAt = now
		job = j
		return nil
	})
	return job, err
}

// progress records bytes written. It reports false once the job is no
// longer downloading.
func (m *Manager) progress(id, bytes, total int64) (bool, error) {
	res, err := m.db.Exec(`
		UPDATE downloads SET bytes = ?, total = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, bytes, total, time.Now().Unix(), id, StatusDownloading)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (m *Manager) finish(id, bytes int64) error {
	_, err := m.db.Exec(`
		UPDATE downloads SET status = ?, bytes = ?, total = MAX(total, ?), error = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, StatusCompleted, bytes, bytes, time.Now().Unix(), id, StatusDownloading)
	return err
}

func (m *Manager) fail(id int64, cause error) error {
	_, err := m.db.Exec(`
		UPDATE downloads SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, StatusFailed, cause.Error(), time.Now().Unix(), id, StatusDownloading)
	return err
}

// requeue returns an interrupted job to pending.
func (m *Manager) requeue(id int64) error {
	_, err := m.db.Exec(`
		UPDATE downloads SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, StatusPending, time.Now().Unix(), id, StatusDownloading)
	return err
}

// FileName builds a safe file name for an item.
func FileName(name, container string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "download"
	}
	if container != "" {
		ext := "." + strings.Split(container, ",")[0]
		if !strings.EqualFold(filepath.Ext(name), ext) {
			name += ext
		}
	}
	return name
}
