package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/andresmejia3/emojify/internal/types"
	"github.com/jackc/pgx/v5"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one processed input image.
type Run struct {
	ID          string
	InputPath   string
	OutputPath  string
	FaceCount   int
	ProcessedAt time.Time
	Faces       []Classification
}

// Classification is the stored verdict for one face of a run.
type Classification struct {
	FaceIndex   int
	Observation types.FaceObservation
	Emoji       emoji.Emoji
	Skipped     bool
}

// Store manages the PostgreSQL connection. A Store is not safe for concurrent
// use; callers record runs from a single goroutine.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS emojify_runs (
			id TEXT PRIMARY KEY,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			face_count INT NOT NULL,
			processed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS face_classifications (
			run_id TEXT REFERENCES emojify_runs(id) ON DELETE CASCADE,
			face_index INT NOT NULL,
			x DOUBLE PRECISION NOT NULL,
			y DOUBLE PRECISION NOT NULL,
			width DOUBLE PRECISION NOT NULL,
			height DOUBLE PRECISION NOT NULL,
			smiling DOUBLE PRECISION NOT NULL,
			left_eye_open DOUBLE PRECISION NOT NULL,
			right_eye_open DOUBLE PRECISION NOT NULL,
			emoji TEXT NOT NULL,
			skipped BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (run_id, face_index)
		);
		CREATE INDEX IF NOT EXISTS face_classifications_emoji_idx ON face_classifications (emoji);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// RecordRun stores a run and its faces. Recording the same run id again
// replaces the earlier faces rather than adding to them.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM face_classifications WHERE run_id = $1", run.ID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO emojify_runs (id, input_path, output_path, face_count, processed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			input_path = EXCLUDED.input_path,
			output_path = EXCLUDED.output_path,
			face_count = EXCLUDED.face_count,
			processed_at = NOW()
	`, run.ID, run.InputPath, run.OutputPath, run.FaceCount)
	if err != nil {
		return err
	}

	if len(run.Faces) > 0 {
		rows := make([][]any, 0, len(run.Faces))
		for _, f := range run.Faces {
			o := f.Observation
			rows = append(rows, []any{
				run.ID, f.FaceIndex, o.X, o.Y, o.Width, o.Height,
				o.SmilingProbability, o.LeftEyeOpenProbability, o.RightEyeOpenProbability,
				f.Emoji.String(), f.Skipped,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"face_classifications"},
			[]string{"run_id", "face_index", "x", "y", "width", "height", "smiling", "left_eye_open", "right_eye_open", "emoji", "skipped"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert classifications: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns returns the most recent runs first, without their faces.
// limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, input_path, output_path, face_count, processed_at FROM emojify_runs ORDER BY processed_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.FaceCount, &r.ProcessedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads one run with its faces in detection order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.conn.QueryRow(ctx,
		"SELECT id, input_path, output_path, face_count, processed_at FROM emojify_runs WHERE id = $1", id,
	).Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.FaceCount, &r.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT face_index, x, y, width, height, smiling, left_eye_open, right_eye_open, emoji, skipped
		FROM face_classifications WHERE run_id = $1 ORDER BY face_index
	`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Classification
		var name string
		o := &c.Observation
		if err := rows.Scan(&c.FaceIndex, &o.X, &o.Y, &o.Width, &o.Height,
			&o.SmilingProbability, &o.LeftEyeOpenProbability, &o.RightEyeOpenProbability, &name, &c.Skipped); err != nil {
			return Run{}, err
		}
		if c.Emoji, err = emoji.Parse(name); err != nil {
			return Run{}, fmt.Errorf("run %s face %d: %w", id, c.FaceIndex, err)
		}
		r.Faces = append(r.Faces, c)
	}
	return r, rows.Err()
}

// EmojiCounts tallies the emoji drawn across all runs. Skipped faces are not counted.
func (s *Store) EmojiCounts(ctx context.Context) (map[emoji.Emoji]int, error) {
	rows, err := s.conn.Query(ctx, "SELECT emoji, COUNT(*) FROM face_classifications WHERE NOT skipped GROUP BY emoji")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[emoji.Emoji]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		e, err := emoji.Parse(name)
		if err != nil {
			return nil, err
		}
		counts[e] = n
	}
	return counts, rows.Err()
}

// Reset drops all application tables to clear the database state.
// The schema is recreated the next time a Store is opened.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS face_classifications CASCADE;
		DROP TABLE IF EXISTS emojify_runs CASCADE;
	`)
	return err
}
