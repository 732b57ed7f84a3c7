package main

import (
	"embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Migration files are compiled into the binary so the migrator deploys as a
// single artifact with no external files to mount.
//
//go:embed *.sql
var embeddedMigrations embed.FS

// Migration filename standard: 001_migration_name.up.sql / 001_migration_name.down.sql.
var migrationFilenameRegex = regexp.MustCompile(`^(\d{3})_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// Validation errors.
var (
	ErrNoMigrations      = errors.New("no migration files embedded")
	ErrInvalidFilename   = errors.New("invalid migration filename")
	ErrUnpairedMigration = errors.New("unpaired migration")
	ErrSequenceGap       = errors.New("gap in migration sequence")
)

// migrationInfo contains parsed information about one migration file.
type migrationInfo struct {
	Sequence  int
	Name      string
	Direction string // "up" or "down"
	Filename  string
}

// listEmbeddedMigrations returns the embedded migration filenames sorted
// lexicographically, which matches sequence order under the naming standard.
func listEmbeddedMigrations() ([]string, error) {
	entries, err := embeddedMigrations.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() && migrationFilenameRegex.MatchString(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)

	return files, nil
}

// validateEmbeddedMigrations checks the embedded set before any command runs:
// every file follows the naming standard, every up has its down, and the
// sequence starts at 001 with no gaps. Catching these at startup beats
// half-applying a broken set against a live database.
func validateEmbeddedMigrations() error {
	files, err := listEmbeddedMigrations()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoMigrations
	}

	migrations := make([]*migrationInfo, 0, len(files))

	for _, file := range files {
		info, err := parseMigrationFilename(file)
		if err != nil {
			return err
		}

		migrations = append(migrations, info)
	}

	if err := validatePairing(migrations); err != nil {
		return err
	}

	return validateSequence(migrations)
}

func parseMigrationFilename(filename string) (*migrationInfo, error) {
	matches := migrationFilenameRegex.FindStringSubmatch(filename)
	if len(matches) != 4 {
		return nil, fmt.Errorf("%w: %s (expected 001_name.up.sql or 001_name.down.sql)", ErrInvalidFilename, filename)
	}

	sequence, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFilename, filename, err)
	}

	return &migrationInfo{
		Sequence:  sequence,
		Name:      matches[2],
		Direction: matches[3],
		Filename:  filename,
	}, nil
}

// validatePairing ensures every up migration has a corresponding down migration.
func validatePairing(migrations []*migrationInfo) error {
	directions := make(map[string]map[string]bool)

	for _, m := range migrations {
		key := fmt.Sprintf("%03d_%s", m.Sequence, m.Name)
		if directions[key] == nil {
			directions[key] = make(map[string]bool)
		}

		directions[key][m.Direction] = true
	}

	for key, dirs := range directions {
		if !dirs["up"] {
			return fmt.Errorf("%w: missing up migration for %s", ErrUnpairedMigration, key)
		}

		if !dirs["down"] {
			return fmt.Errorf("%w: missing down migration for %s", ErrUnpairedMigration, key)
		}
	}

	return nil
}

// validateSequence ensures the sequence starts at 001 with no gaps.
func validateSequence(migrations []*migrationInfo) error {
	seen := make(map[int]bool)

	for _, m := range migrations {
		seen[m.Sequence] = true
	}

	sequences := make([]int, 0, len(seen))
	for seq := range seen {
		sequences = append(sequences, seq)
	}

	sort.Ints(sequences)

	if sequences[0] != 1 {
		return fmt.Errorf("%w: sequence should start with 001, found %03d", ErrSequenceGap, sequences[0])
	}

	for i := 1; i < len(sequences); i++ {
		if sequences[i] != sequences[i-1]+1 {
			return fmt.Errorf("%w: expected %03d, found %03d", ErrSequenceGap, sequences[i-1]+1, sequences[i])
		}
	}

	return nil
}
