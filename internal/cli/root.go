package cli

import "github.com/spf13/cobra"

// NewRootCmd assembles the tone command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "tone",
		Short:   "Guitar tone research and adaptation service",
		Version: version,
		Long: `tone researches the guitar rig behind a song section with an AI provider,
caches the result for a day, and adapts it to a player's own guitar and amp.`,
		SilenceUsage: true,
	}
	root.AddCommand(NewServeCmd(), NewMigrateCmd(), NewResearchCmd(), NewTokenCmd(), NewWorkerCmd())
	return root
}
