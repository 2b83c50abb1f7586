package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/desertthunder/snapmix/internal/formatter"
	"github.com/desertthunder/snapmix/internal/media"
	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/repositories"
	"github.com/desertthunder/snapmix/internal/shared"
	"github.com/desertthunder/snapmix/internal/tasks"
	"github.com/urfave/cli/v3"
)

type parseOutput struct {
	Params      params.Set          `json:"params"`
	Diagnostics []params.Diagnostic `json:"diagnostics,omitempty"`
}

type recommendOutput struct {
	Profile         *models.Profile `json:"profile,omitempty"`
	Params          params.Set      `json:"params"`
	Recommendations []models.Track  `json:"recommendations"`
	Run             int             `json:"run,omitempty"`
}

// Parse reads analysis text from a file (or stdin) and prints the parameters it yields.
//
// No network access is needed.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	verbose := cmd.Bool("verbose")

	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(r.input)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	set, diags := params.Inspect(string(data))
	r.logger.Debug("parsed analysis text", "params", set.Len(), "skipped", len(diags))

	if cmd.Bool("json") {
		out := parseOutput{Params: set}
		if verbose {
			out.Diagnostics = diags
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writeParams(set)
	if verbose && len(diags) > 0 {
		r.writePlain("\nSkipped %s:\n", shared.Pluralize(len(diags), "line"))
		for _, d := range diags {
			if d.Key != "" {
				r.writePlain("  line %d (%s): %s\n", d.Line, d.Key, d.Reason)
			} else {
				r.writePlain("  line %d: %s\n", d.Line, d.Reason)
			}
		}
	}
	return nil
}

// Analyze sends a photo to the vision model and prints the parsed parameters. Spotify is not contacted.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	imagePath := cmd.String("image")
	if imagePath == "" {
		return fmt.Errorf("%w: --image is required", shared.ErrMissingArgument)
	}

	analyzer, err := r.analyzerService(ctx)
	if err != nil {
		return err
	}

	token, err := media.EncodeFile(imagePath)
	if err != nil {
		return err
	}

	r.logger.Info("analyzing photo", "path", imagePath)
	raw, err := analyzer.Analyze(ctx, token)
	if err != nil {
		return err
	}

	set, diags := params.Inspect(raw)
	for _, d := range diags {
		r.logger.Debug("skipped line", "line", d.Line, "key", d.Key, "reason", d.Reason)
	}

	if cmd.Bool("json") {
		return r.writeJSON(parseOutput{Params: set, Diagnostics: diags}, cmd.Bool("pretty"))
	}

	if cmd.Bool("raw") {
		r.writePlainHeader("Model response")
		r.writePlain("%s\n\n", raw)
	}
	r.writeParams(set)
	return nil
}

// Recommend runs the whole cycle for a photo: profile, analysis, parameters and Spotify recommendations.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	imagePath := cmd.String("image")
	if imagePath == "" {
		return fmt.Errorf("%w: --image is required", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")

	pipeline, err := r.newPipeline(ctx, true)
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		db, err := shared.OpenHistory(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer db.Close()
		pipeline.SetRecorder(repositories.NewRunRecorder(repositories.NewAnalysisRunRepository(db)))
	}

	var progressCh chan tasks.ProgressUpdate
	printed := make(chan struct{})
	if useJSON {
		close(printed)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(printed)
			for update := range progressCh {
				r.printProgress(update)
			}
		}()
	}

	var result *tasks.Result
	err = r.withReauth(ctx, pipeline, func() error {
		var err error
		result, err = pipeline.Run(ctx, progressCh, imagePath)
		return err
	})
	if progressCh != nil {
		close(progressCh)
	}
	<-printed

	if err != nil {
		if result != nil && result.Analysis != nil && !useJSON {
			r.writePlain("\n")
			r.writeParams(result.Analysis.Params)
		}
		return err
	}

	report := &formatter.Report{
		Image:   imagePath,
		Created: time.Now().UTC(),
		Params:  result.Analysis.Params,
		Tracks:  result.Recommendations,
	}
	if result.Profile != nil {
		report.User = result.Profile.Name()
	}
	if result.Run != nil {
		report.Created = result.Run.CreatedAt()
	}

	if useJSON {
		out := recommendOutput{
			Profile:         result.Profile,
			Params:          result.Analysis.Params,
			Recommendations: result.Recommendations,
		}
		if result.Run != nil {
			out.Run = result.Run.Sequence()
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	return r.writeReport(report, cmd.String("format"), cmd.String("output"))
}

// writeReport prints the report as text, or exports it when a file format or output path is requested.
func (r *Runner) writeReport(report *formatter.Report, format, output string) error {
	if output == "" && (format == "" || format == formatter.FormatText) {
		data, err := formatter.ExportToText(report)
		if err != nil {
			return err
		}
		r.writePlain("\n")
		r.writeParams(report.Params)
		r.writePlain("\n%s", data)
		return nil
	}

	path, err := formatter.WriteExport(report, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("recommendations exported", "path", path, "tracks", len(report.Tracks))
	r.writePlain("\n✓ %s exported to %s\n", shared.Pluralize(len(report.Tracks), "recommendation"), path)
	return nil
}

func (r *Runner) writeParams(set params.Set) {
	if set.Len() == 0 {
		r.writePlain("No usable parameters found\n")
		return
	}

	r.writePlain("Parameters (%d):\n", set.Len())
	for _, k := range set.Keys() {
		v, _ := set.Get(k)
		r.writePlain("  %-24s %s\n", k, v)
	}
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.LoadProfile:
		r.writePlain("👤 %s\n", update.Message)
	case tasks.EncodeImage:
		r.writePlain("📷 %s\n", update.Message)
	case tasks.AnalyzeImage:
		r.writePlain("🔍 %s\n", update.Message)
	case tasks.ParseParams:
		r.writePlain("🎛  %s\n", update.Message)
	case tasks.FetchRecommendations:
		r.writePlain("🎵 %s\n", update.Message)
	case tasks.RecordRun:
		r.writePlain("💾 %s\n", update.Message)
	case tasks.Done:
		r.writePlain("%s\n", update.Message)
	}
}
