package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	errorvalues "github.com/nagu/shado/internal/error_values"
	"github.com/nagu/shado/internal/service"
	"github.com/nagu/shado/pkg/entity"
	"github.com/nagu/shado/pkg/jsonutil"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "shado",
	Short:         "Single-user protocol tracker",
	Long:          "Shado tracks one time-boxed protocol: a handful of daily tasks, one entry per day, and aggregate insights over the protocol's lifetime.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	setupTitle string
	setupStart string
	setupEnd   string
	setupTasks []string
)

// setupCmd finalizes a new goal from flags. Without --task flags it installs
// the default protocol template.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Start a new protocol (replaces the current one and its history)",
	Long: `Start a new protocol. Tasks are given as --task "Label|binary" or
--task "Label|quantitative|unit", in display order. With no --task flags the
default template is installed: a binary Strategic Planning task and a
quantitative Focus Blocks task measured in hrs.`,
	RunE: runSetup,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the protocol window and today's entry",
	RunE:  runStatus,
}

var doneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a binary task successful for today",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var failReason string

var failCmd = &cobra.Command{
	Use:   "fail <task>",
	Short: "Mark a binary task failed for today, optionally with a reason",
	Args:  cobra.ExactArgs(1),
	RunE:  runFail,
}

var logCmd = &cobra.Command{
	Use:   "log <task> <value>",
	Short: "Record a quantitative value for today",
	Args:  cobra.ExactArgs(2),
	RunE:  runLog,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <from> <to>",
	Short: "Move a task to a new position (1-based)",
	Args:  cobra.ExactArgs(2),
	RunE:  runReorder,
}

var insightsJSON bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show success rate, failure reasons and the recent trend",
	RunE:  runInsights,
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Terminate the protocol and discard its history",
	RunE:  runReset,
}

func init() {
	setupCmd.Flags().StringVar(&setupTitle, "title", "Performance Protocol", "protocol title")
	setupCmd.Flags().StringVar(&setupStart, "start", "", "start date (YYYY-MM-DD, default today)")
	setupCmd.Flags().StringVar(&setupEnd, "end", "", "end date (YYYY-MM-DD, default 30 days out)")
	setupCmd.Flags().StringArrayVar(&setupTasks, "task", nil, `task spec "Label|kind[|unit]"`)
	failCmd.Flags().StringVar(&failReason, "reason", "", "why the task failed")
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "emit the summary as JSON")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(setupCmd, statusCmd, doneCmd, failCmd, logCmd, reorderCmd, insightsCmd, resetCmd)
}

func today() string {
	return entity.DateKey(time.Now())
}

func parseDay(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// parseTaskSpec turns "Label|kind[|unit]" into a draft.
func parseTaskSpec(spec string) (service.TaskDraft, error) {
	parts := strings.Split(spec, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return service.TaskDraft{}, fmt.Errorf("invalid task spec %q, want \"Label|kind[|unit]\"", spec)
	}
	draft := service.TaskDraft{
		Label: strings.TrimSpace(parts[0]),
		Kind:  entity.TaskKind(strings.TrimSpace(parts[1])),
	}
	if len(parts) == 3 {
		draft.Unit = strings.TrimSpace(parts[2])
	}
	return draft, nil
}

func defaultTemplate() []service.TaskDraft {
	return []service.TaskDraft{
		{Label: "Strategic Planning", Kind: entity.TaskBinary},
		{Label: "Focus Blocks", Kind: entity.TaskQuantitative, Unit: "hrs"},
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	now := time.Now()
	start, err := parseDay(setupStart, now)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := parseDay(setupEnd, now.AddDate(0, 0, 30))
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	drafts := make([]service.TaskDraft, 0, len(setupTasks))
	for _, spec := range setupTasks {
		draft, err := parseTaskSpec(spec)
		if err != nil {
			return err
		}
		drafts = append(drafts, draft)
	}
	if len(drafts) == 0 {
		drafts = defaultTemplate()
	}
	state, err := stateService.FinalizeGoal(context.Background(), &service.FinalizeGoalRequest{
		Title:     setupTitle,
		StartDate: start,
		EndDate:   end,
		Tasks:     drafts,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrInvalidDraft) {
			return fmt.Errorf("please complete the draft: %w", err)
		}
		return err
	}
	fmt.Printf("Protocol %q initialized with %d tasks.\n", state.CurrentGoal.Title, len(state.CurrentGoal.Tasks))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	state, err := stateService.Current(ctx)
	if err != nil {
		return err
	}
	if state.CurrentGoal == nil {
		fmt.Println("No active protocol. Run `shado setup` to start one.")
		return nil
	}
	goal := state.CurrentGoal
	now := time.Now()
	fmt.Printf("%s\n", goal.Title)
	fmt.Printf("%d days remaining (%.0f%% through the window, until %s)\n",
		goal.DaysRemaining(now), goal.ProgressPercent(now), entity.DateKey(goal.EndDate))

	entry, err := entriesService.GetOrCreateToday(ctx, today())
	if err != nil {
		return err
	}
	fmt.Printf("\nToday (%s):\n", entry.Date)
	for i, task := range goal.Tasks {
		fmt.Printf("  %d. %-24s %s\n", i+1, task.Label, renderResult(task, entry.Results))
	}
	return nil
}

func renderResult(task entity.Task, results map[string]entity.Result) string {
	r, ok := results[task.ID]
	if !ok {
		return "—"
	}
	switch task.Kind {
	case entity.TaskQuantitative:
		if task.Unit != "" {
			return fmt.Sprintf("%g %s", r.Value, task.Unit)
		}
		return fmt.Sprintf("%g", r.Value)
	default:
		if r.Success {
			return "done"
		}
		if r.Reason != nil && *r.Reason != "" {
			return "failed (" + *r.Reason + ")"
		}
		return "failed"
	}
}

// resolveTask accepts a 1-based position or a case-insensitive label.
func resolveTask(ctx context.Context, ref string) (entity.Task, error) {
	state, err := stateService.Current(ctx)
	if err != nil {
		return entity.Task{}, err
	}
	if state.CurrentGoal == nil {
		return entity.Task{}, errorvalues.ErrNoActiveGoal
	}
	tasks := state.CurrentGoal.Tasks
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx < 1 || idx > len(tasks) {
			return entity.Task{}, fmt.Errorf("%w: position %d", errorvalues.ErrTaskNotFound, idx)
		}
		return tasks[idx-1], nil
	}
	for _, t := range tasks {
		if strings.EqualFold(t.Label, ref) {
			return t, nil
		}
	}
	return entity.Task{}, fmt.Errorf("%w: %q", errorvalues.ErrTaskNotFound, ref)
}

func applyToToday(ref string, result entity.Result) error {
	ctx := context.Background()
	task, err := resolveTask(ctx, ref)
	if err != nil {
		if errors.Is(err, errorvalues.ErrNoActiveGoal) {
			fmt.Println("No active protocol. Run `shado setup` to start one.")
			return nil
		}
		return err
	}
	if _, err := entriesService.ApplyResult(ctx, today(), task.ID, result); err != nil {
		return err
	}
	fmt.Printf("Recorded %s for %q.\n", today(), task.Label)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	return applyToToday(args[0], entity.BinarySuccess())
}

func runFail(cmd *cobra.Command, args []string) error {
	return applyToToday(args[0], entity.BinaryFailure(failReason))
}

func runLog(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}
	return applyToToday(args[0], entity.Quantity(value))
}

func runReorder(cmd *cobra.Command, args []string) error {
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid position %q", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid position %q", args[1])
	}
	state, err := stateService.ReorderTasks(context.Background(), from-1, to-1)
	if err != nil {
		return err
	}
	if state.CurrentGoal == nil {
		fmt.Println("No active protocol. Run `shado setup` to start one.")
		return nil
	}
	for i, task := range state.CurrentGoal.Tasks {
		fmt.Printf("  %d. %s\n", i+1, task.Label)
	}
	return nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	summary, err := insightsService.Summary(context.Background())
	if err != nil {
		if errors.Is(err, errorvalues.ErrNoData) {
			fmt.Println("Awaiting operational data...")
			return nil
		}
		return err
	}
	if insightsJSON {
		return jsonutil.WritePretty(os.Stdout, summary)
	}
	fmt.Printf("Integrity: %.0f%%\n", summary.SuccessRatePercent)
	if len(summary.FailureReasons) > 0 {
		fmt.Println("Deviation sources:")
		for reason, count := range summary.FailureReasons {
			fmt.Printf("  %-24s %d\n", reason, count)
		}
	}
	if len(summary.Trend) > 0 {
		fmt.Printf("%s output:\n", summary.QuantTaskLabel)
		for _, p := range summary.Trend {
			fmt.Printf("  %s  %g\n", trendLabel(p.Date), p.Value)
		}
	}
	return nil
}

// trendLabel shortens YYYY-MM-DD to MM/DD for display.
func trendLabel(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date
	}
	return parts[1] + "/" + parts[2]
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes && !confirm("Terminate protocol and reset?") {
		fmt.Println("Aborted.")
		return nil
	}
	if _, err := stateService.ResetGoal(context.Background()); err != nil {
		return err
	}
	fmt.Println("Protocol terminated. Run `shado setup` to start a new one.")
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
