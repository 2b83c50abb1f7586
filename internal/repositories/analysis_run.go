package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/shared"
)

// DefaultRecentLimit is how many runs [AnalysisRunRepository.Recent] returns for a non-positive limit.
const DefaultRecentLimit = 10

const runColumns = `id, sequence, user_id, media_type, image_digest, raw_analysis, params, seed_track_ids,
	recommendations, created_at, updated_at, deleted_at`

// AnalysisRunRepository implements models.Repository[*models.AnalysisRun].
type AnalysisRunRepository struct {
	db *sql.DB
}

// NewAnalysisRunRepository creates a new AnalysisRunRepository with the given database connection
func NewAnalysisRunRepository(db *sql.DB) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *AnalysisRunRepository) Create(run *models.AnalysisRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	paramsJSON, recsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "analysis_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO analysis_runs (id, sequence, user_id, media_type, image_digest, raw_analysis, params,
			seed_track_ids, recommendations, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.UserID(),
		run.MediaType(),
		run.ImageDigest(),
		run.RawAnalysis(),
		paramsJSON,
		strings.Join(run.SeedTrackIDs(), ","),
		recsJSON,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *AnalysisRunRepository) Get(id string) (*models.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a run by its sequence number
func (r *AnalysisRunRepository) GetBySequence(sequence int) (*models.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// Update rewrites the mutable fields of a run
func (r *AnalysisRunRepository) Update(run *models.AnalysisRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	paramsJSON, recsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE analysis_runs
		SET raw_analysis = ?, params = ?, seed_track_ids = ?, recommendations = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.RawAnalysis(),
		paramsJSON,
		strings.Join(run.SeedTrackIDs(), ","),
		recsJSON,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}

	if err := expectRow(result, run.ID()); err != nil {
		return err
	}
	run.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a run by ID
func (r *AnalysisRunRepository) Delete(id string) error {
	query := `UPDATE analysis_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis run: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves runs matching criteria ("user_id", "image_digest"), oldest first.
func (r *AnalysisRunRepository) List(criteria map[string]any) ([]*models.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if digest, ok := criteria["image_digest"].(string); ok && digest != "" {
		query += " AND image_digest = ?"
		args = append(args, digest)
	}

	query += " ORDER BY sequence ASC"
	return r.query(query, args...)
}

// Recent returns the latest limit runs, newest first.
func (r *AnalysisRunRepository) Recent(limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT ?`
	return r.query(query, limit)
}

func (r *AnalysisRunRepository) query(query string, args ...any) ([]*models.AnalysisRun, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *AnalysisRunRepository) scanOne(row *sql.Row, ref string) (*models.AnalysisRun, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, ref)
	}
	return run, err
}

func scanRun(s scanner) (*models.AnalysisRun, error) {
	var (
		id, userID, mediaType, digest, raw string
		paramsJSON, seeds, recsJSON        string
		sequence                           int
		createdAt, updatedAt               time.Time
		deletedAt                          sql.NullTime
	)

	err := s.Scan(&id, &sequence, &userID, &mediaType, &digest, &raw, &paramsJSON, &seeds,
		&recsJSON, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis run: %w", err)
	}

	var p map[string]string
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return nil, fmt.Errorf("failed to decode params of run %s: %w", id, err)
	}

	var recs []models.Track
	if err := json.Unmarshal([]byte(recsJSON), &recs); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations of run %s: %w", id, err)
	}

	run := models.NewAnalysisRun(userID, mediaType, digest, raw)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetParams(p)
	if seeds != "" {
		run.SetSeedTrackIDs(strings.Split(seeds, ","))
	}
	run.SetRecommendations(recs)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}
	return run, nil
}

func encodeRun(run *models.AnalysisRun) (string, string, error) {
	paramsJSON, err := json.Marshal(run.Params())
	if err != nil {
		return "", "", fmt.Errorf("failed to encode params: %w", err)
	}

	recs := run.Recommendations()
	if recs == nil {
		recs = []models.Track{}
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode recommendations: %w", err)
	}
	return string(paramsJSON), string(recsJSON), nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrRunNotFound, id)
	}
	return nil
}

// RunRecorder saves pipeline runs through an [AnalysisRunRepository].
type RunRecorder struct {
	repo *AnalysisRunRepository
}

func NewRunRecorder(repo *AnalysisRunRepository) *RunRecorder {
	return &RunRecorder{repo: repo}
}

// Record implements tasks.Recorder.
func (r *RunRecorder) Record(ctx context.Context, run *models.AnalysisRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.repo.Create(run)
}
