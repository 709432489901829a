package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/workflow"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Manage the candidate index",
}

var candidatesIngestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Add every supported resume in a directory (default seed.cv-dir)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, config *Config, logger *zap.Logger) error {
			dir := config.Seed.CVDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and seed.cv-dir is not set")
			}

			summary, err := svc.ingester.IngestDir(ctx, dir)
			if err != nil {
				return err
			}
			logger.Info("ingest finished",
				zap.Int("added", summary.Added),
				zap.Int("duplicates", summary.Duplicates),
				zap.Int("failed", summary.Failed),
			)
			return nil
		})
	},
}

var candidatesAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add one resume, identity taken from flags or the file name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			id := identityFlags(cmd)
			c, err := svc.ingester.IngestFile(ctx, args[0], id)
			if err != nil {
				return err
			}
			logger.Info("candidate added", zap.String("candidate", c.Identity.String()), zap.String("id", c.ID))
			return nil
		})
	},
}

var candidatesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search candidates by meaning",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, config *Config, _ *zap.Logger) error {
			topK, _ := cmd.Flags().GetInt("top-k")
			if topK <= 0 {
				topK = config.Search.TopK
			}

			raw := map[string]any{}
			if v, _ := cmd.Flags().GetString("position"); v != "" {
				raw["position"] = v
			}
			if v, _ := cmd.Flags().GetInt("min-experience"); v > 0 {
				raw["min_experience"] = v
			}
			if v, _ := cmd.Flags().GetStringSlice("skills"); len(v) > 0 {
				raw["required_skills"] = v
			}
			filters, err := ats.DecodeFilters(raw)
			if err != nil {
				return err
			}

			results, err := svc.candidates.SearchWithFilters(ctx, strings.Join(args, " "), topK, filters)
			if err != nil {
				return err
			}
			fmt.Println(workflow.Format(workflow.CandidateMatches{Results: results}))
			return nil
		})
	},
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active candidates",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, _ *zap.Logger) error {
			candidates, err := svc.candidates.ListCandidates(ctx)
			if err != nil {
				return err
			}
			fmt.Println(workflow.Format(workflow.CandidateList{Candidates: candidates}))
			return nil
		})
	},
}

var candidatesDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deactivate a candidate and rebuild the index",
	Run: func(cmd *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			id := identityFlags(cmd)
			if err := hr.Validate(hr.NewValidator(), id); err != nil {
				return err
			}
			if err := svc.candidates.DeleteCandidate(ctx, id); err != nil {
				return err
			}
			logger.Info("candidate deleted", zap.String("candidate", id.String()), zap.Int("vectors", svc.candidates.Len()))
			return nil
		})
	},
}

var candidatesRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the store",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			if err := svc.candidates.Rebuild(ctx); err != nil {
				return err
			}
			logger.Info("index rebuilt", zap.Int("vectors", svc.candidates.Len()))
			return nil
		})
	},
}

var candidatesDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deactivate duplicate resumes of the same candidate",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			removed, err := svc.candidates.RemoveDuplicates(ctx)
			if err != nil {
				return err
			}
			logger.Info("duplicates removed", zap.Int("count", removed))
			return nil
		})
	},
}

var candidatesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print candidate analytics",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			a, err := svc.candidates.Analytics(ctx)
			if err != nil {
				return err
			}
			pretty, _ := json.MarshalIndent(a, "", "  ")
			logger.Info(string(pretty), zap.Int("candidates count", a.TotalCandidates))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(
		candidatesIngestCmd,
		candidatesAddCmd,
		candidatesSearchCmd,
		candidatesListCmd,
		candidatesDeleteCmd,
		candidatesRebuildCmd,
		candidatesDedupeCmd,
		candidatesStatsCmd,
	)

	for _, c := range []*cobra.Command{candidatesAddCmd, candidatesDeleteCmd} {
		c.Flags().String("name", "", "candidate name")
		c.Flags().String("position", "", "candidate position")
	}

	candidatesSearchCmd.Flags().IntP("top-k", "k", 0, "number of results (default search.top-k)")
	candidatesSearchCmd.Flags().String("position", "", "keep candidates whose position contains this")
	candidatesSearchCmd.Flags().Int("min-experience", 0, "minimum years of experience")
	candidatesSearchCmd.Flags().StringSlice("skills", nil, "keep candidates with any of these skills")
}

func identityFlags(cmd *cobra.Command) hr.CandidateIdentity {
	name, _ := cmd.Flags().GetString("name")
	position, _ := cmd.Flags().GetString("position")
	return hr.CandidateIdentity{Name: strings.TrimSpace(name), Position: strings.TrimSpace(position)}
}
