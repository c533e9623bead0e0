package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/OscarCarPu/life-manager/internal/tasks"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	overdueColor  = color.New(color.FgRed, color.Bold)
	upcomingColor = color.New(color.FgYellow)
	normalColor   = color.New(color.FgGreen)
	mutedColor    = color.New(color.Faint)
)

// createRecommendCommand creates the 'recommend' command
func (c *CLI) createRecommendCommand() *cobra.Command {
	var (
		limit    int
		planning bool
		date     string
		format   string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:     "recommend",
		Aliases: []string{"next"},
		Short:   "Show the highest scoring open tasks",
		Long: `Rank open tasks of in-progress projects by urgency, priority, planning
and age. With --planning the ranking targets a calendar planning step and skips
tasks already planned in the next few days.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unsupported format %q (use %s or %s)", format, formatTable, formatJSON)
			}
			if limit < 0 {
				return tasks.ErrInvalidLimit
			}

			return c.withService(cmd, func(ctx context.Context, svc Recommender) error {
				today := svc.Today()
				if date != "" {
					d, err := tasks.ParseDate(date)
					if err != nil {
						return err
					}
					today = d
				}
				if !cmd.Flags().Changed("limit") {
					limit = svc.Config().DefaultLimit
				}

				recs, err := svc.Recommend(ctx, today, limit, planning)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if format == formatJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(recs)
				}
				printRecommendations(out, recs, today, planning, explain, svc.Weights().UpcomingDays)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of results (0 for all, defaults to the configured limit)")
	cmd.Flags().BoolVarP(&planning, "planning", "p", false, "Rank for a calendar planning step")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Evaluate as of this day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format (table, json)")
	cmd.Flags().BoolVarP(&explain, "explain", "e", false, "Show the score breakdown of each task")

	return cmd
}

// printRecommendations renders a ranking as an aligned table
func printRecommendations(out io.Writer, recs []tasks.Recommendation, today time.Time, planning, explain bool, upcomingDays int) {
	mode := "next up"
	if planning {
		mode = "planning"
	}
	headerColor.Fprintf(out, "Recommendations for %s (%s)\n", today.Format(time.DateOnly), mode)

	if len(recs) == 0 {
		mutedColor.Fprintln(out, "Nothing to do. Enjoy your day!")
		return
	}

	for i, rec := range recs {
		c := colorFor(rec.Task, today, upcomingDays)
		fmt.Fprintf(out, "%3d. ", i+1)
		c.Fprintf(out, "%7.2f", rec.Score)
		fmt.Fprintf(out, "  %-12s %s", stateLabel(rec.Task.State), rec.Task.Title)
		if rec.Task.DueDate != nil {
			mutedColor.Fprintf(out, "  (due %s)", rec.Task.DueDate.Format(time.DateOnly))
		}
		fmt.Fprintln(out)

		if explain {
			parts := make([]string, 0, len(rec.Terms))
			for _, term := range rec.Terms {
				parts = append(parts, fmt.Sprintf("%s=%g", term.Name, term.Value))
			}
			mutedColor.Fprintf(out, "       %s\n", strings.Join(parts, " "))
		}
	}
}

// colorFor highlights overdue and upcoming tasks
func colorFor(task tasks.Task, today time.Time, upcomingDays int) *color.Color {
	if task.DueDate == nil {
		return normalColor
	}
	days := tasks.DaysBetween(today, *task.DueDate)
	switch {
	case days < 0:
		return overdueColor
	case days <= upcomingDays:
		return upcomingColor
	default:
		return normalColor
	}
}

// stateLabel turns "in_progress" into "In Progress"
func stateLabel(state tasks.TaskState) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(string(state), "_", " "))
}
