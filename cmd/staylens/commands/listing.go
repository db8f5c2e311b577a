package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/source"
)

var detailCmd = &cobra.Command{
	Use:   "detail <id> [id...]",
	Short: "Fetch listing details",
	Long: `Fetch the full detail of one or more listings.

With several ids the requests run concurrently (see --concurrency) and each
result carries either the detail or the error for that id.

Examples:
  staylens detail 12345678
  staylens detail 12345678 23456789 34567890 --concurrency 2 -f jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: run(runDetail),
}

var calendarCmd = &cobra.Command{
	Use:   "calendar <id>",
	Short: "Fetch a listing's availability and price calendar",
	Args:  cobra.ExactArgs(1),
	RunE:  run(runCalendar),
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews <id>",
	Short: "Fetch a page of listing reviews",
	Long: `Fetch reviews for a listing. Use --cursor with the printed next_cursor to
continue, or --pages to follow the cursor automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: run(runReviews),
}

var hostCmd = &cobra.Command{
	Use:   "host <id>",
	Short: "Fetch the host profile of a listing",
	Args:  cobra.ExactArgs(1),
	RunE:  run(runHost),
}

var occupancyCmd = &cobra.Command{
	Use:   "occupancy <id>",
	Short: "Estimate a listing's occupancy from its calendar",
	Args:  cobra.ExactArgs(1),
	RunE:  run(runOccupancy),
}

func init() {
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(occupancyCmd)

	detailCmd.Flags().IntP("concurrency", "c", source.DefaultConcurrency, "maximum concurrent requests for several ids")
	calendarCmd.Flags().IntP("months", "m", source.DefaultMonths, "months of calendar to fetch (1-12)")
	occupancyCmd.Flags().IntP("months", "m", source.DefaultMonths, "months of calendar to use (1-12)")
	reviewsCmd.Flags().String("cursor", "", "pagination cursor from a previous page")
	reviewsCmd.Flags().Int("pages", 1, "number of pages to fetch by following next_cursor")
}

func runDetail(a *app, cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		d, err := a.client.Detail(a.ctx, args[0])
		if err != nil {
			return err
		}
		return a.emit(d)
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	results := source.DetailMany(a.ctx, a.client, args, concurrency)

	items := make([]any, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Warn("detail failed", "id", r.ID, "error", r.Err)
		}
		items = append(items, r)
	}
	if err := a.emit(items...); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d listings failed", failed, len(results))
	}
	return nil
}

func runCalendar(a *app, cmd *cobra.Command, args []string) error {
	months, _ := cmd.Flags().GetInt("months")
	cal, err := a.client.Calendar(a.ctx, args[0], months)
	if err != nil {
		return err
	}
	cal.ComputeStats()
	return a.emit(cal)
}

func runReviews(a *app, cmd *cobra.Command, args []string) error {
	cursor, _ := cmd.Flags().GetString("cursor")
	pages, _ := cmd.Flags().GetInt("pages")
	if pages < 1 {
		pages = 1
	}

	var items []any
	for i := 0; i < pages; i++ {
		page, err := a.client.Reviews(a.ctx, args[0], cursor)
		if err != nil {
			if len(items) == 0 {
				return err
			}
			logger.Warn("stopping pagination", "page", i+1, "error", err)
			break
		}
		items = append(items, page)
		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = *page.NextCursor
	}
	return a.emit(items...)
}

func runHost(a *app, _ *cobra.Command, args []string) error {
	h, err := a.client.Host(a.ctx, args[0])
	if err != nil {
		return err
	}
	return a.emit(h)
}

func runOccupancy(a *app, cmd *cobra.Command, args []string) error {
	months, _ := cmd.Flags().GetInt("months")
	est, err := source.OccupancyEstimate(a.ctx, a.client, args[0], months)
	if err != nil {
		return err
	}
	return a.emit(est)
}
