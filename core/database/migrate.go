package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/gatekeeper/core/logger"
)

// RunMigrations applies every pending up migration from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	files := listMigrationFiles(dir)
	preview, cut := logger.SummarizeStrings(files, 6)
	logger.MIG.Debug("",
		slog.String("event", "db.migrate.resolve"),
		slog.String("path", dir),
		slog.Int("count", len(files)),
		slog.String("files", preview),
		slog.Bool("truncated", cut),
	)

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.MIG.Warn("", slog.String("event", "db.migrate.close"),
				slog.Any("err", errors.Join(srcErr, dbErr)))
		}
	}()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("",
			slog.String("event", "db.migrate"),
			slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("migrate up: %w", upErr)
	}

	to, _, _ := m.Version()
	applied := appliedBetween(files, uint64(from), uint64(to))
	preview, cut = logger.SummarizeStrings(applied, 6)
	logger.MIG.Info("",
		slog.String("event", "db.migrate"),
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(applied)),
		slog.String("files", preview),
		slog.Bool("truncated", cut),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func resolveMigrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	return abs, nil
}

// listMigrationFiles returns the sorted *.up.sql names in dir.
func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// parseVersion reads the numeric prefix of "0001_name.up.sql"; 0 when absent.
func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// appliedBetween returns the files with versions in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
