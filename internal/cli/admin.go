package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/tone-platform/internal/app"
	"github.com/suPer8Hu/tone-platform/internal/auth"
	"github.com/suPer8Hu/tone-platform/internal/config"
	"github.com/suPer8Hu/tone-platform/internal/tone"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the cache and job tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log, app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if a.DB == nil {
				return errors.New("DB_DSN is not set")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.DBDriver)
			return nil
		},
	}
}

func NewResearchCmd() *cobra.Command {
	var q tone.Query
	var part string
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research one song section and print the result as JSON",
		Example: `  tone research --song "Little Wing" --artist "Jimi Hendrix" --part riff
  tone research --song "Comfortably Numb" --part solo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Part = tone.Part(part)
			return runResearch(cmd.Context(), cmd.OutOrStdout(), q)
		},
	}
	cmd.Flags().StringVar(&q.Song, "song", "", "song title (required)")
	cmd.Flags().StringVar(&q.Artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&part, "part", "riff", `"riff" or "solo"`)
	_ = cmd.MarkFlagRequired("song")
	return cmd
}

func runResearch(ctx context.Context, w io.Writer, q tone.Query) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log, app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out, err := a.Research.Research(ctx, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"data":   out.Result,
		"cached": out.Cached,
		"mode":   out.Mode,
	})
}

func NewTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token signed with ADMIN_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := auth.SignJWT(subject, config.Load().AdminJWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
