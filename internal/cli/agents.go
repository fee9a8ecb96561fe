package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/agentctl/agentctl/pkg/events"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/store"
	"github.com/agentctl/agentctl/pkg/tasks"
)

var (
	agentDescription  string
	agentTasksFile    string
	agentTimeoutMs    int64
	agentRetryMax     int
	agentRetryDelayMs int64
	agentRetryBackoff string
	runDryRun         bool
	runWatch          bool
	runMetricsAddr    string
)

// agentCmd groups the agent management subcommands
var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage automation agents",
	Long: `Create, inspect, run and delete automation agents.

An agent is a named bundle of typed tasks. Tasks run strictly in
declaration order; a failing task is recorded and the run continues.

Examples:
  agentctl agent create notifier --description "daily mail digest" --tasks tasks.json
  agentctl agent list
  agentctl agent run 3f1c2d8a --dry-run`,
}

// agentCreateCmd creates a new agent
var agentCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new agent",
	Long: `Create a new agent with the given name.

The name must be 1-100 characters of letters, digits, underscore or
hyphen, and unique across the directory. Task definitions are read
from a JSON file holding an array of task objects.

Examples:
  agentctl agent create notifier --description "daily mail digest"
  agentctl agent create reporter --description "weekly report" --tasks tasks.json --timeout 60000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _, _, err := openDirectory(ctx)
		if err != nil {
			return err
		}

		partial, err := buildPartialConfig()
		if err != nil {
			return err
		}

		agent, err := dir.Create(ctx, args[0], agentDescription, partial)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(agent)
		}
		fmt.Printf("Created agent %s (%s) with %d task(s)\n", agent.Name, agent.ID, len(agent.Config.Tasks))
		return nil
	},
}

// agentListCmd lists all agents
var agentListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all agents",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _, _, err := openDirectory(ctx)
		if err != nil {
			return err
		}

		agents, err := dir.List(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(agents)
		}
		if len(agents) == 0 {
			fmt.Println("No agents found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTASKS\tUPDATED")
		for _, a := range agents {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				a.ID, a.Name, a.Status, len(a.Config.Tasks),
				a.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

// agentGetCmd shows one agent in full
var agentGetCmd = &cobra.Command{
	Use:     "get [id]",
	Short:   "Show an agent's full configuration",
	Aliases: []string{"show", "describe"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _, _, err := openDirectory(ctx)
		if err != nil {
			return err
		}

		agent, err := dir.Get(ctx, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(agent)
		}

		fmt.Printf("ID:          %s\n", agent.ID)
		fmt.Printf("Name:        %s\n", agent.Name)
		fmt.Printf("Description: %s\n", agent.Description)
		fmt.Printf("Status:      %s\n", agent.Status)
		fmt.Printf("Timeout:     %dms\n", agent.Config.TimeoutMs)
		if rp := agent.Config.RetryPolicy; rp != nil {
			fmt.Printf("Retries:     max=%d delay=%dms backoff=%s\n", rp.MaxRetries, rp.DelayMs, rp.Backoff)
		}
		fmt.Printf("Created:     %s\n", agent.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated:     %s\n", agent.UpdatedAt.Format(time.RFC3339))
		fmt.Printf("Tasks:       %d\n", len(agent.Config.Tasks))
		for i, t := range agent.Config.Tasks {
			fmt.Printf("  [%d] %s (%s)", i, t.Name, t.Type)
			if t.Description != "" {
				fmt.Printf(" - %s", t.Description)
			}
			fmt.Println()
			for _, k := range sortedKeys(t.Config) {
				fmt.Printf("      %s: %v\n", k, t.Config[k])
			}
		}
		return nil
	},
}

// agentRunCmd runs an agent's tasks
var agentRunCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Run an agent's tasks",
	Long: `Run every task of the agent, in declaration order, and print the
per-task results. Tasks whose type has no registered executor are
skipped; a failing task is recorded and the run continues.

With --dry-run the task list is printed without executing anything.
With --watch the agent is re-run whenever its stored definition
changes on disk (file store only).

Examples:
  agentctl agent run 3f1c2d8a
  agentctl agent run 3f1c2d8a --dry-run
  agentctl agent run 3f1c2d8a --watch`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, s, registry, err := openDirectory(ctx)
		if err != nil {
			return err
		}

		agent, err := dir.Get(ctx, args[0])
		if err != nil {
			return err
		}

		if runDryRun {
			printDryRun(*agent, registry)
			return nil
		}

		var emitter events.Emitter
		if appConfig.Events.Enabled {
			emitter = events.NewKafkaEmitter(events.EmitterConfig{
				Brokers: appConfig.Events.Brokers,
				Topic:   appConfig.Events.Topic,
			})
			defer emitter.Close()
		}

		if runMetricsAddr != "" {
			go func() {
				if err := http.ListenAndServe(runMetricsAddr, appMetrics.Handler()); err != nil {
					appLogger.Warn("metrics endpoint failed", logging.Err(err))
				}
			}()
		}

		dispatcher := tasks.NewDispatcher(registry, appLogger, appMetrics)
		runOnce := func(a models.Agent) error {
			result := dispatcher.Run(ctx, a)
			if emitter != nil {
				if err := emitter.EmitRunResult(ctx, result); err != nil {
					appLogger.Warn("failed to emit run event", logging.Err(err))
				}
			}
			return printRunResult(result)
		}

		if !runWatch {
			return runOnce(*agent)
		}

		fs, ok := s.(*store.FileStore)
		if !ok {
			return fmt.Errorf("--watch requires the file store backend")
		}
		return watchAndRun(ctx, fs, dir.Get, args[0], runOnce)
	},
}

// agentDeleteCmd deletes an agent
var agentDeleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Short:   "Delete an agent",
	Aliases: []string{"rm", "remove"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _, _, err := openDirectory(ctx)
		if err != nil {
			return err
		}

		if err := dir.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted agent %s\n", args[0])
		return nil
	},
}

// buildPartialConfig turns the create flags into a config overlay, or
// nil when no flag was set.
func buildPartialConfig() (*models.AgentConfig, error) {
	partial := &models.AgentConfig{}
	touched := false

	if agentTasksFile != "" {
		data, err := os.ReadFile(agentTasksFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read tasks file: %w", err)
		}
		var taskList []models.Task
		if err := json.Unmarshal(data, &taskList); err != nil {
			return nil, fmt.Errorf("failed to parse tasks file: %w", err)
		}
		partial.Tasks = taskList
		touched = true
	}
	if agentTimeoutMs != 0 {
		partial.TimeoutMs = agentTimeoutMs
		touched = true
	}
	if agentRetryMax != 0 || agentRetryDelayMs != 0 || agentRetryBackoff != "" {
		rp := &models.RetryPolicy{
			MaxRetries: agentRetryMax,
			DelayMs:    agentRetryDelayMs,
			Backoff:    models.BackoffStrategy(agentRetryBackoff),
		}
		if rp.DelayMs == 0 {
			rp.DelayMs = 1000
		}
		if rp.Backoff == "" {
			rp.Backoff = models.BackoffExponential
		}
		partial.RetryPolicy = rp
		touched = true
	}

	if !touched {
		return nil, nil
	}
	return partial, nil
}

// printDryRun lists the tasks that a run would attempt, without
// touching any executor.
func printDryRun(agent models.Agent, registry *tasks.Registry) {
	fmt.Printf("Dry run for agent %s (%s): %d task(s)\n", agent.Name, agent.ID, len(agent.Config.Tasks))
	for i, t := range agent.Config.Tasks {
		state := "would run"
		if _, ok := registry.Executor(t.Type); !ok {
			state = "would skip (no executor)"
		}
		fmt.Printf("  [%d] %s (%s): %s\n", i, t.Name, t.Type, state)
	}
}

// printRunResult renders one AgentResult to stdout.
func printRunResult(result models.AgentResult) error {
	if jsonOutput {
		return printJSON(result)
	}

	fmt.Printf("Run %s: %s in %dms\n", result.AgentID, result.Status, result.DurationMs)
	for _, tr := range result.TaskResults {
		switch tr.Status {
		case models.ResultFailure:
			fmt.Printf("  %s  %s: %s\n", statusMark(tr.Status), tr.TaskID, tr.Error)
		default:
			fmt.Printf("  %s  %s (%dms)\n", statusMark(tr.Status), tr.TaskID, tr.DurationMs)
		}
	}
	return nil
}

func statusMark(s models.ResultStatus) string {
	switch s {
	case models.ResultSuccess:
		return "ok"
	case models.ResultFailure:
		return "FAIL"
	default:
		return "skip"
	}
}

// watchAndRun re-runs the agent whenever its store document changes.
// Editors and the store itself write via rename, so Create and Write
// events on the agent's path both trigger a re-run.
func watchAndRun(ctx context.Context, fs *store.FileStore, get func(context.Context, string) (*models.Agent, error), id string, runOnce func(models.Agent) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(fs.Dir()); err != nil {
		return fmt.Errorf("failed to watch store directory: %w", err)
	}

	agent, err := get(ctx, id)
	if err != nil {
		return err
	}
	if err := runOnce(*agent); err != nil {
		return err
	}
	fmt.Printf("Watching %s for changes (ctrl-c to stop)\n", fs.AgentPath(id))

	target := filepath.Clean(fs.AgentPath(id))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			agent, err := get(ctx, id)
			if err != nil {
				appLogger.Warn("failed to reload agent", logging.Err(err))
				continue
			}
			if err := runOnce(*agent); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLogger.Warn("watch error", logging.Err(err))
		}
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	agentCreateCmd.Flags().StringVarP(&agentDescription, "description", "d", "", "agent description (required)")
	agentCreateCmd.Flags().StringVar(&agentTasksFile, "tasks", "", "JSON file holding the task list")
	agentCreateCmd.Flags().Int64Var(&agentTimeoutMs, "timeout", 0, "overall timeout in milliseconds")
	agentCreateCmd.Flags().IntVar(&agentRetryMax, "retry-max", 0, "maximum retry attempts (0-10)")
	agentCreateCmd.Flags().Int64Var(&agentRetryDelayMs, "retry-delay", 0, "retry delay in milliseconds")
	agentCreateCmd.Flags().StringVar(&agentRetryBackoff, "retry-backoff", "", "retry backoff strategy (linear, exponential, fixed)")

	agentRunCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the task list without executing")
	agentRunCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run when the agent definition changes (file store only)")
	agentRunCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running (useful with --watch)")

	agentCmd.AddCommand(agentCreateCmd)
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentGetCmd)
	agentCmd.AddCommand(agentRunCmd)
	agentCmd.AddCommand(agentDeleteCmd)
}
