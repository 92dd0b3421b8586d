package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartspatial/geoindex/pkg/geoindex"
)

var (
	indexClearExisting bool
	indexDryRun        bool
	indexWorkers       int
	indexRepoPath      string
)

var indexCmd = &cobra.Command{
	Use:   "index [commit-ish...]",
	Short: "Bring the spatial index up to date with the given commits (or every ref, if none given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := geoindex.Open(geoindex.Options{
			RepoPath:  indexRepoPath,
			IndexPath: cfg.IndexPath,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer idx.Close()

		workers := indexWorkers
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Workers
		}

		summary, err := idx.Update(cmd.Context(), geoindex.UpdateOptions{
			Commits:       args,
			ClearExisting: indexClearExisting,
			DryRun:        indexDryRun,
			Workers:       workers,
			Verbosity:     cfg.Verbosity,
			Progress: func(indexed int, elapsed time.Duration) {
				fmt.Printf("  %d features... @%.1fs\n", indexed, elapsed.Seconds())
			},
		})
		if err != nil {
			return err
		}

		if summary.UpToDate {
			fmt.Println("Nothing to do: index already up to date.")
			return nil
		}
		if summary.AncestorDesc == "" {
			fmt.Printf("Indexing from the very start up to %s ...\n", summary.CurrentDesc)
		} else {
			fmt.Printf("Indexing from %s up to %s ...\n", summary.AncestorDesc, summary.CurrentDesc)
		}
		if indexDryRun {
			fmt.Println("(Not performing the indexing due to --dry-run.)")
			return nil
		}
		fmt.Printf("Indexed %d features (%d skipped) in %.1fs\n",
			summary.FeaturesIndexed, summary.FeaturesSkipped, summary.Elapsed.Seconds())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexClearExisting, "clear-existing", false, "delete any pre-existing data before re-indexing")
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "report what would be indexed without writing anything")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "number of concurrent envelope-projection workers (default: number of CPUs)")
	indexCmd.Flags().StringVar(&indexRepoPath, "repo", ".", "path to the git repository")
}
