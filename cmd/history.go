package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/snapmix/internal/formatter"
	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/repositories"
	"github.com/desertthunder/snapmix/internal/shared"
	"github.com/urfave/cli/v3"
)

type runSummary struct {
	Sequence        int               `json:"sequence"`
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	MediaType       string            `json:"media_type"`
	ImageDigest     string            `json:"image_digest"`
	Params          map[string]string `json:"params"`
	Recommendations []models.Track    `json:"recommendations"`
	CreatedAt       time.Time         `json:"created_at"`
}

func summarize(run *models.AnalysisRun) runSummary {
	return runSummary{
		Sequence:        run.Sequence(),
		ID:              run.ID(),
		UserID:          run.UserID(),
		MediaType:       run.MediaType(),
		ImageDigest:     run.ImageDigest(),
		Params:          run.Params(),
		Recommendations: run.Recommendations(),
		CreatedAt:       run.CreatedAt(),
	}
}

// openHistory opens the history database. Callers must close the returned handle.
func (r *Runner) openHistory(cmd *cli.Command) (*repositories.AnalysisRunRepository, *sql.DB, error) {
	if err := r.useConfig(cmd); err != nil {
		return nil, nil, err
	}

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return repositories.NewAnalysisRunRepository(db), db, nil
}

func runSequence(cmd *cli.Command) (int, error) {
	arg := cmd.StringArg("sequence")
	if arg == "" {
		return 0, fmt.Errorf("%w: run number is required", shared.ErrMissingArgument)
	}

	seq, err := strconv.Atoi(arg)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("%w: %q is not a run number", shared.ErrInvalidArgument, arg)
	}
	return seq, nil
}

// HistoryList shows the latest saved runs, or every run of --user oldest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var runs []*models.AnalysisRun
	if user := cmd.String("user"); user != "" {
		runs, err = repo.List(map[string]any{"user_id": user})
	} else {
		runs, err = repo.Recent(cmd.Int("limit"))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runSummary, len(runs))
		for i, run := range runs {
			out[i] = summarize(run)
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No saved runs. Use 'snapmix recommend --save' to record one.\n")
	}

	r.writePlain("%s:\n\n", shared.Pluralize(len(runs), "run"))
	for _, run := range runs {
		r.writePlain("#%d  %s  %s  %s, %s\n",
			run.Sequence(),
			run.CreatedAt().Local().Format("2006-01-02 15:04"),
			run.MediaType(),
			shared.Pluralize(len(run.Params()), "param"),
			shared.Pluralize(len(run.Recommendations()), "track"),
		)
	}
	return nil
}

// HistoryShow prints or exports one saved run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	seq, err := runSequence(cmd)
	if err != nil {
		return err
	}

	repo, db, err := r.openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.GetBySequence(seq)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summarize(run), cmd.Bool("pretty"))
	}

	if cmd.Bool("raw") {
		r.writePlainHeader("Model response")
		r.writePlain("%s\n\n", run.RawAnalysis())
	}
	return r.writeReport(formatter.ReportFromRun(run), cmd.String("format"), cmd.String("output"))
}

// HistoryDelete removes a saved run.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	seq, err := runSequence(cmd)
	if err != nil {
		return err
	}

	repo, db, err := r.openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.GetBySequence(seq)
	if err != nil {
		return err
	}
	if err := repo.Delete(run.ID()); err != nil {
		return err
	}

	r.logger.Info("run deleted", "sequence", seq, "id", run.ID())
	return r.writePlain("✓ Deleted run #%d\n", seq)
}
