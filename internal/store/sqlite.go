package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// initializes its schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveModule inserts m when it has no ID and updates it otherwise.
func (s *SQLiteStore) SaveModule(ctx context.Context, m *models.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveModule(ctx, s.db, m)
}

// SaveModuleWithVersions saves m and all its versions, in order, atomically.
func (s *SQLiteStore) SaveModuleWithVersions(ctx context.Context, m *models.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	moduleID, versionIDs := m.ID, make([]int64, len(m.Versions))
	for i, v := range m.Versions {
		versionIDs[i] = v.ID
	}
	if err := saveModule(ctx, tx, m); err != nil {
		return err
	}
	for i, v := range m.Versions {
		if err := saveVersion(ctx, tx, m.ID, i, v); err != nil {
			m.ID = moduleID
			for j, id := range versionIDs {
				m.Versions[j].ID = id
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit module %q: %w", m.Name, err)
	}
	return nil
}

// AppendVersion inserts the last version of m at its position and updates the
// module row, so the module's counts and interval map never disagree with its
// stored versions.
func (s *SQLiteStore) AppendVersion(ctx context.Context, m *models.Module) error {
	if len(m.Versions) == 0 {
		return fmt.Errorf("append version to %q: %w", m.Name, models.ErrEmptyInput)
	}
	pos := len(m.Versions) - 1
	v := m.Versions[pos]
	if v.Persisted() {
		return fmt.Errorf("append version %q: %w: already stored", v.Name, models.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveVersion(ctx, tx, m.ID, pos, v); err != nil {
		return err
	}
	if err := saveModule(ctx, tx, m); err != nil {
		v.ID = 0
		return err
	}
	if err := tx.Commit(); err != nil {
		v.ID = 0
		return fmt.Errorf("failed to commit version %q: %w", v.Name, err)
	}
	return nil
}

func saveModule(ctx context.Context, db execer, m *models.Module) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("save module: %w", err)
	}
	intervals, err := json.Marshal(m.DynamicIntervals)
	if err != nil {
		return fmt.Errorf("failed to marshal dynamic intervals: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	if !m.Persisted() {
		res, err := db.ExecContext(ctx, `
			INSERT INTO module (name, round_to, dynamic_diversities_intervals,
				const_diversities_count, dynamic_diversities_count,
				min_out_val, max_out_val, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.RoundTo, string(intervals), m.ConstCount, m.DynamicCount,
			m.MinOutVal, m.MaxOutVal, now, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("module %q: %w", m.Name, ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to insert module %q: %w", m.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read module id: %w", err)
		}
		m.ID = id
		return nil
	}

	res, err := db.ExecContext(ctx, `
		UPDATE module SET name = ?, round_to = ?, dynamic_diversities_intervals = ?,
			const_diversities_count = ?, dynamic_diversities_count = ?,
			min_out_val = ?, max_out_val = ?, updated_at = ?
		WHERE id = ?`,
		m.Name, m.RoundTo, string(intervals), m.ConstCount, m.DynamicCount,
		m.MinOutVal, m.MaxOutVal, now, m.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("module %q: %w", m.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update module %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("module %d: %w", m.ID, ErrNotFound)
	}
	return nil
}

func saveVersion(ctx context.Context, db execer, moduleID int64, position int, v *models.Version) error {
	if moduleID == 0 {
		return fmt.Errorf("save version %q: %w: module is not persisted", v.Name, models.ErrInvalidInput)
	}
	if err := v.SetReliability(v.Reliability); err != nil {
		return fmt.Errorf("save version: %w", err)
	}
	constJSON, err := json.Marshal(nonNil(v.ConstCoordinates))
	if err != nil {
		return fmt.Errorf("failed to marshal const coordinates: %w", err)
	}
	dynJSON, err := json.Marshal(nonNil(v.DynamicCoordinates))
	if err != nil {
		return fmt.Errorf("failed to marshal dynamic coordinates: %w", err)
	}

	if !v.Persisted() {
		res, err := db.ExecContext(ctx, `
			INSERT INTO version (name, const_diversities_coordinates, dynamic_diversities_coordinates,
				reliability, module_id, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			v.Name, string(constJSON), string(dynJSON), v.Reliability, moduleID, position)
		if isUniqueViolation(err) {
			return fmt.Errorf("version %q: %w", v.Name, ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to insert version %q: %w", v.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read version id: %w", err)
		}
		v.ID = id
		return nil
	}

	res, err := db.ExecContext(ctx, `
		UPDATE version SET name = ?, const_diversities_coordinates = ?,
			dynamic_diversities_coordinates = ?, reliability = ?, module_id = ?, position = ?
		WHERE id = ?`,
		v.Name, string(constJSON), string(dynJSON), v.Reliability, moduleID, position, v.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("version %q: %w", v.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update version %d: %w", v.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("version %d: %w", v.ID, ErrNotFound)
	}
	return nil
}

const moduleColumns = `id, name, round_to, dynamic_diversities_intervals,
	const_diversities_count, dynamic_diversities_count, min_out_val, max_out_val`

func scanModule(row interface{ Scan(...any) error }) (*models.Module, error) {
	var m models.Module
	var intervals sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &m.RoundTo, &intervals,
		&m.ConstCount, &m.DynamicCount, &m.MinOutVal, &m.MaxOutVal); err != nil {
		return nil, err
	}
	m.DynamicIntervals = make(map[string][]models.Interval)
	if intervals.Valid && intervals.String != "" && intervals.String != "null" {
		if err := json.Unmarshal([]byte(intervals.String), &m.DynamicIntervals); err != nil {
			return nil, fmt.Errorf("module %d: failed to parse dynamic intervals: %w", m.ID, err)
		}
	}
	return &m, nil
}

// LoadModule loads a module and its versions in position order.
func (s *SQLiteStore) LoadModule(ctx context.Context, id int64) (*models.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanModule(s.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM module WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("module %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load module %d: %w", id, err)
	}
	if err := s.loadVersions(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadModuleByName loads a module by its unique name.
func (s *SQLiteStore) LoadModuleByName(ctx context.Context, name string) (*models.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanModule(s.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM module WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("module %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load module %q: %w", name, err)
	}
	if err := s.loadVersions(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListModules returns every module ordered by id. Versions are not loaded.
func (s *SQLiteStore) ListModules(ctx context.Context) ([]*models.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+moduleColumns+` FROM module ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var out []*models.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadVersions(ctx context.Context, m *models.Module) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, const_diversities_coordinates, dynamic_diversities_coordinates, reliability
		FROM version WHERE module_id = ? ORDER BY position, id`, m.ID)
	if err != nil {
		return fmt.Errorf("failed to load versions of module %d: %w", m.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.Version
		var constJSON, dynJSON string
		if err := rows.Scan(&v.ID, &v.Name, &constJSON, &dynJSON, &v.Reliability); err != nil {
			return fmt.Errorf("failed to scan version: %w", err)
		}
		if err := json.Unmarshal([]byte(constJSON), &v.ConstCoordinates); err != nil {
			return fmt.Errorf("version %d: failed to parse const coordinates: %w", v.ID, err)
		}
		if err := json.Unmarshal([]byte(dynJSON), &v.DynamicCoordinates); err != nil {
			return fmt.Errorf("version %d: failed to parse dynamic coordinates: %w", v.ID, err)
		}
		m.Versions = append(m.Versions, &v)
	}
	return rows.Err()
}

type coordinatesDoc struct {
	VersionCoordinates []float64 `json:"version_coordinates"`
}

type matrixDoc struct {
	ConnectivityMatrix [][]float64 `json:"connectivity_matrix"`
}

// SaveExperiment stores every result of iterations, replacing earlier data for
// the same module and experiment. All results must belong to one persisted
// module and one experiment. Result IDs are written back into iterations.
func (s *SQLiteStore) SaveExperiment(ctx context.Context, iterations []models.Iteration) error {
	var first *models.IterationResult
	for i := range iterations {
		if len(iterations[i].Results) > 0 {
			first = &iterations[i].Results[0]
			break
		}
	}
	if first == nil {
		return fmt.Errorf("save experiment: %w", models.ErrEmptyInput)
	}
	if first.ModuleID == 0 {
		return fmt.Errorf("save experiment: %w: module %q is not persisted", models.ErrInvalidInput, first.ModuleName)
	}
	moduleID, experiment := first.ModuleID, first.ExperimentName

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM experiment_data WHERE module_id = ? AND experiment_name = ?`,
		moduleID, experiment); err != nil {
		return fmt.Errorf("failed to clear experiment %q: %w", experiment, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO experiment_data (version_id, version_name, version_reliability,
			version_common_coordinates, version_answer, correct_answer, module_id, module_name,
			module_connectivity_matrix, module_iteration_num, experiment_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	// The matrix is shared by every result of a generation run; encode it once.
	var lastMatrix [][]float64
	var matrixJSON []byte

	ids := make([][]int64, len(iterations))
	for i, it := range iterations {
		ids[i] = make([]int64, len(it.Results))
		for j, r := range it.Results {
			if r.ModuleID != moduleID || r.ExperimentName != experiment {
				return fmt.Errorf("save experiment: %w: result for module %d experiment %q mixed into module %d experiment %q",
					models.ErrInvalidInput, r.ModuleID, r.ExperimentName, moduleID, experiment)
			}
			coords, err := json.Marshal(coordinatesDoc{VersionCoordinates: nonNil(r.VersionCoordinates)})
			if err != nil {
				return fmt.Errorf("failed to marshal coordinates: %w", err)
			}
			if matrixJSON == nil || !sameMatrix(lastMatrix, r.ConnectivityMatrix) {
				if matrixJSON, err = json.Marshal(matrixDoc{ConnectivityMatrix: r.ConnectivityMatrix}); err != nil {
					return fmt.Errorf("failed to marshal matrix: %w", err)
				}
				lastMatrix = r.ConnectivityMatrix
			}

			res, err := stmt.ExecContext(ctx,
				nullID(r.VersionID), r.VersionName, r.VersionReliability, string(coords),
				r.Answer, r.CorrectAnswer, r.ModuleID, r.ModuleName, string(matrixJSON),
				r.Iteration, r.ExperimentName)
			if err != nil {
				return fmt.Errorf("failed to insert result %s/%d: %w", r.VersionName, r.Iteration, err)
			}
			if ids[i][j], err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to read result id: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit experiment %q: %w", experiment, err)
	}
	for i := range iterations {
		for j := range iterations[i].Results {
			iterations[i].Results[j].ID = ids[i][j]
		}
	}
	return nil
}

// LoadExperiment returns the stored results of one experiment grouped by
// iteration, in iteration order. Iterations without results were not stored
// and do not appear.
func (s *SQLiteStore) LoadExperiment(ctx context.Context, moduleID int64, experiment string) ([]models.Iteration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version_id, version_name, version_reliability, version_common_coordinates,
			version_answer, correct_answer, module_id, module_name, module_connectivity_matrix,
			module_iteration_num, experiment_name
		FROM experiment_data
		WHERE module_id = ? AND experiment_name = ?
		ORDER BY module_iteration_num, id`, moduleID, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment %q: %w", experiment, err)
	}
	defer rows.Close()

	matrices := make(map[string][][]float64)
	var out []models.Iteration
	for rows.Next() {
		var r models.IterationResult
		var versionID sql.NullInt64
		var coordsJSON, matrixJSON string
		if err := rows.Scan(&r.ID, &versionID, &r.VersionName, &r.VersionReliability, &coordsJSON,
			&r.Answer, &r.CorrectAnswer, &r.ModuleID, &r.ModuleName, &matrixJSON,
			&r.Iteration, &r.ExperimentName); err != nil {
			return nil, fmt.Errorf("failed to scan experiment data: %w", err)
		}
		r.VersionID = versionID.Int64

		var coords coordinatesDoc
		if err := json.Unmarshal([]byte(coordsJSON), &coords); err != nil {
			return nil, fmt.Errorf("result %d: failed to parse coordinates: %w", r.ID, err)
		}
		r.VersionCoordinates = coords.VersionCoordinates

		matrix, ok := matrices[matrixJSON]
		if !ok {
			var doc matrixDoc
			if err := json.Unmarshal([]byte(matrixJSON), &doc); err != nil {
				return nil, fmt.Errorf("result %d: failed to parse matrix: %w", r.ID, err)
			}
			matrix = doc.ConnectivityMatrix
			matrices[matrixJSON] = matrix
		}
		r.ConnectivityMatrix = matrix

		if n := len(out); n == 0 || out[n-1].Index != r.Iteration {
			out = append(out, models.Iteration{Index: r.Iteration, ReferenceValue: r.CorrectAnswer})
		}
		last := &out[len(out)-1]
		last.Results = append(last.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("experiment %q of module %d: %w", experiment, moduleID, ErrNotFound)
	}
	return out, nil
}

// ListExperiments summarizes the stored experiments of a module. A zero
// moduleID lists experiments of every module.
func (s *SQLiteStore) ListExperiments(ctx context.Context, moduleID int64) ([]ExperimentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT module_id, module_name, experiment_name,
			COUNT(DISTINCT module_iteration_num), COUNT(*)
		FROM experiment_data
		WHERE ? = 0 OR module_id = ?
		GROUP BY module_id, module_name, experiment_name
		ORDER BY module_id, MIN(id)`, moduleID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var out []ExperimentSummary
	for rows.Next() {
		var e ExperimentSummary
		if err := rows.Scan(&e.ModuleID, &e.ModuleName, &e.Name, &e.Iterations, &e.Results); err != nil {
			return nil, fmt.Errorf("failed to scan experiment summary: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveAlgorithm upserts an algorithm by name and sets its ID.
func (s *SQLiteStore) SaveAlgorithm(ctx context.Context, a *AlgorithmRecord) error {
	if a.Name == "" {
		return fmt.Errorf("save algorithm: %w: name is required", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO algorithm (name, description) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description`,
		a.Name, a.Description); err != nil {
		return fmt.Errorf("failed to save algorithm %q: %w", a.Name, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM algorithm WHERE name = ?`, a.Name).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to read algorithm id: %w", err)
	}
	return nil
}

// ListAlgorithms returns the stored algorithms ordered by id.
func (s *SQLiteStore) ListAlgorithms(ctx context.Context) ([]AlgorithmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(description, '') FROM algorithm ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list algorithms: %w", err)
	}
	defer rows.Close()

	var out []AlgorithmRecord
	for rows.Next() {
		var a AlgorithmRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.Description); err != nil {
			return nil, fmt.Errorf("failed to scan algorithm: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveVoteResults stores one vote_result row per experiment data row voted
// on, replacing earlier answers of the same algorithm. Failed outcomes are
// stored with a NULL answer. It returns the number of rows written.
func (s *SQLiteStore) SaveVoteResults(ctx context.Context, algorithmID int64, outcomes []vote.Outcome) (int, error) {
	if algorithmID == 0 {
		return 0, fmt.Errorf("save vote results: %w: algorithm is not persisted", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vote_result (algorithm_id, experiment_data_id, vote_answer) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, o := range outcomes {
		answer := sql.NullFloat64{Float64: o.Consensus, Valid: !o.Failed()}
		for _, id := range o.ResultIDs {
			if _, err := stmt.ExecContext(ctx, algorithmID, id, answer); err != nil {
				return 0, fmt.Errorf("failed to insert vote result for row %d: %w", id, err)
			}
			written++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit vote results: %w", err)
	}
	return written, nil
}

// ListVoteResults returns the stored answers of one algorithm ordered by
// experiment data row. Rows of failed votes are skipped.
func (s *SQLiteStore) ListVoteResults(ctx context.Context, algorithmID int64) ([]VoteResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, algorithm_id, experiment_data_id, vote_answer
		FROM vote_result WHERE algorithm_id = ? AND vote_answer IS NOT NULL
		ORDER BY experiment_data_id`, algorithmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vote results: %w", err)
	}
	defer rows.Close()

	var out []VoteResult
	for rows.Next() {
		var v VoteResult
		if err := rows.Scan(&v.ID, &v.AlgorithmID, &v.ExperimentDataID, &v.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan vote result: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

// sameMatrix reports whether a and b share backing storage.
func sameMatrix(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
