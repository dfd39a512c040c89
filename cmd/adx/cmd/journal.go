package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/brynbeaudry/loserbot9000-sub002/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded runs and readings",
	Long: `Query and display recorded computation runs from a SQLite journal.

Subcommands:
  runs      - List recorded runs, newest first
  show      - Show one run with its readings

Examples:
  adx journal runs
  adx journal runs --limit 5
  adx journal show 01HZXY12ABCDEFGHJKMNPQRSTV`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its readings",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath    string
	journalRunsLimit int
	journalShowFrom  string
	journalShowTo    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./readings.db", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVar(&journalRunsLimit, "limit", 10, "max runs to list (0 = all)")
	journalShowCmd.Flags().StringVar(&journalShowFrom, "from", "", "only readings at or after this RFC3339 time")
	journalShowCmd.Flags().StringVar(&journalShowTo, "to", "", "only readings before this RFC3339 time")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(journalRunsLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Println(journal.FormatRunsOrg(runs))
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	run, err := j.GetRun(runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	fmt.Println(journal.FormatRunOrg(run))

	var readings []journal.Reading
	if journalShowFrom == "" && journalShowTo == "" {
		readings, err = j.RunReadings(runID)
	} else {
		var from, to time.Time
		if from, err = parseTimeFlag(journalShowFrom); err != nil {
			return err
		}
		if to, err = parseTimeFlag(journalShowTo); err != nil {
			return err
		}
		if to.IsZero() {
			to = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		readings, err = j.ReadingsBetween(runID, from, to)
	}
	if err != nil {
		return fmt.Errorf("query readings: %w", err)
	}

	fmt.Printf("%5s  %-20s  %9s  %6s\n", "POS", "TIME", "STRENGTH", "LEVEL")
	for _, r := range readings {
		level := "-"
		if !math.IsNaN(r.Level) {
			level = fmt.Sprintf("%.2f", r.Level)
		}
		fmt.Printf("%5d  %-20s  %9.4f  %6s\n",
			r.Position, r.BarTime.UTC().Format(time.RFC3339), r.Strength, level)
	}
	return nil
}
