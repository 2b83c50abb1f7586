package main

import (
	"context"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/urfave/cli/v3"
)

type profileOutput struct {
	Profile   *models.Profile `json:"profile"`
	TopTracks []models.Track  `json:"top_tracks"`
}

// Profile shows the signed-in Spotify user and the top tracks used as recommendation seeds.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	pipeline, err := r.newPipeline(ctx, false)
	if err != nil {
		return err
	}

	err = r.withReauth(ctx, pipeline, func() error {
		_, err := pipeline.LoadProfile(ctx, nil)
		return err
	})
	if err != nil {
		return err
	}

	snap := pipeline.Session().Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(profileOutput{Profile: snap.Profile, TopTracks: snap.TopTracks}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(snap.Profile.Name())
	r.writePlain("ID: %s\n", snap.Profile.ID)
	if snap.Profile.Email != "" {
		r.writePlain("Email: %s\n", snap.Profile.Email)
	}
	if snap.Profile.Country != "" {
		r.writePlain("Country: %s\n", snap.Profile.Country)
	}
	if snap.Profile.Product != "" {
		r.writePlain("Plan: %s\n", snap.Profile.Product)
	}

	if len(snap.TopTracks) == 0 {
		r.writePlainln("⚠ No top tracks yet; recommendations need listening history.")
		return nil
	}

	r.writePlain("\nTop tracks (recommendation seeds):\n")
	for i, t := range snap.TopTracks {
		r.writePlain("  %d. %s - %s\n", i+1, t.ArtistLine(), t.Name)
	}
	return nil
}
