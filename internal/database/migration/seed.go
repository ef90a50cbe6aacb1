package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"userapi/internal/repository/sqlmapper"
	"userapi/internal/storage"
)

var ErrNoObjectStorage = errors.New("seed script is an object url but object storage is not configured")

// Seeder executes the startup seed script.
type Seeder struct {
	db    *sql.DB
	store storage.Storage
	log   zerolog.Logger
}

// NewSeeder builds a Seeder. store may be nil when scripts only come from local files.
func NewSeeder(db *sql.DB, store storage.Storage, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, store: store, log: log.With().Str("component", "seed").Logger()}
}

// Run loads the script at src (a local path or s3://bucket/key) and executes every statement
// in a single transaction. An empty src is a no-op. It returns the number of statements run.
// Driver constraint errors are classified, so a re-applied script reports repository.ErrDuplicateKey.
func (s *Seeder) Run(ctx context.Context, src string) (int, error) {
	if src == "" {
		return 0, nil
	}
	start := time.Now()

	script, err := s.load(ctx, src)
	if err != nil {
		s.log.Error().Err(err).Str("source", src).Msg("cannot load seed script")
		return 0, fmt.Errorf("load seed %s: %w", src, err)
	}

	stmts := SplitStatements(script)
	if err := s.exec(ctx, stmts); err != nil {
		return 0, fmt.Errorf("seed %s: %w", src, err)
	}

	s.log.Info().
		Str("source", src).
		Int("statements", len(stmts)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("seed script applied")
	return len(stmts), nil
}

func (s *Seeder) load(ctx context.Context, src string) (string, error) {
	var rc io.ReadCloser
	if storage.IsObjectURL(src) {
		if s.store == nil {
			return "", ErrNoObjectStorage
		}
		bucket, key, err := storage.ParseObjectURL(src)
		if err != nil {
			return "", err
		}
		obj, info, err := s.store.Get(ctx, bucket, key)
		if err != nil {
			return "", err
		}
		s.log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", info.Size).Msg("seed object fetched")
		rc = obj
	} else {
		f, err := os.Open(src)
		if err != nil {
			return "", err
		}
		rc = f
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Seeder) exec(ctx context.Context, stmts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			err = fmt.Errorf("statement %d: %w", i+1, sqlmapper.Classify(err))
			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
