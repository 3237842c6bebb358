package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/showfloor-ai/showfloor/config"
	"github.com/showfloor-ai/showfloor/log"
	"github.com/showfloor-ai/showfloor/ollama"
	"github.com/showfloor-ai/showfloor/orchestrator"
	"github.com/showfloor-ai/showfloor/team"
)

var (
	version = "1.0.0"

	// exitCode is the process exit status, set by runBatch when any task
	// failed. main applies it after the log file is closed.
	exitCode int

	configFlag   string
	endpointFlag string
	modelFlag    string
	workersFlag  int
	timeoutFlag  time.Duration
	fileFlag     string
	quietFlag    bool

	rootCmd = &cobra.Command{
		Use:   "showfloor",
		Short: "Showfloor - a team of generation-backed agents for customer requests",
		Long: "Showfloor dispatches customer requests to a fixed team of named agents,\n" +
			"each backed by a text-generation model, and reports their progress.",
	}

	runCmd = &cobra.Command{
		Use:   "run [description]...",
		Short: "Submit a batch of customer requests and wait for the results",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args)
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Check that the generation backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			v, err := client.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend unreachable at %s: %w", client.Config().BaseURL, err)
			}
			fmt.Printf("backend ok: %s (version %s)\n", client.Config().BaseURL, v)
			return nil
		},
	}

	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List models available on the generation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Printf("%-40s %10d MB  %s\n", m.Name, m.Size/(1024*1024), m.Modified.Format("2006-01-02"))
			}
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("showfloor version %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to a config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Generation backend base URL")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name for generation requests")

	runCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Limit the team to the first N roster members")
	runCmd.Flags().DurationVarP(&timeoutFlag, "timeout", "t", 0, "Per-exchange timeout (e.g. 45s)")
	runCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read task descriptions from a file, one per line")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress progress events, print only results")

	rootCmd.AddCommand(runCmd, pingCmd, modelsCmd, versionCmd)
}

// loadConfig resolves the effective configuration from file, env and flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFlag != "" {
		loaded, err := config.LoadConfigFromFile(configFlag)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadConfig()
	}

	if endpointFlag != "" {
		cfg.Backend.BaseURL = strings.TrimSuffix(endpointFlag, "/")
	}
	if modelFlag != "" {
		cfg.Backend.Model = modelFlag
	}
	if timeoutFlag > 0 {
		cfg.Backend.RequestTimeoutMS = int(timeoutFlag.Milliseconds())
	}
	return cfg, nil
}

func newClient() (*ollama.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return ollama.NewClient(&cfg.Backend)
}

// readTasks gathers task descriptions from args and the optional task file.
func readTasks(args []string) ([]string, error) {
	descriptions := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			descriptions = append(descriptions, a)
		}
	}

	if fileFlag != "" {
		f, err := os.Open(fileFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to open task file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				descriptions = append(descriptions, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read task file: %w", err)
		}
	}

	if len(descriptions) == 0 {
		return nil, fmt.Errorf("no task descriptions given; pass them as arguments or via --file")
	}
	return descriptions, nil
}

func runBatch(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	descriptions, err := readTasks(args)
	if err != nil {
		return err
	}

	client, err := ollama.NewClient(&cfg.Backend)
	if err != nil {
		return err
	}

	roster := cfg.Roster
	if workersFlag > 0 && workersFlag < len(roster) {
		roster = roster[:workersFlag]
	}
	members := team.Build(roster, client)

	console := newConsoleSink(os.Stdout, quietFlag, members)

	orch, err := orchestrator.New(members, console, orchestrator.Options{
		GracePeriod: time.Duration(cfg.GracePeriodMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := orch.Run(ctx, descriptions)
	if err != nil {
		return err
	}

	console.printResults(results)
	console.printSummary(orch.Metrics(), orch.TeamSnapshot())

	exitCode = batchExitCode(results)
	return nil
}

// batchExitCode maps a batch outcome to the process exit status: 1 if any
// task failed, 0 otherwise.
func batchExitCode(results []orchestrator.TaskResult) int {
	for _, r := range results {
		if r.Err != nil {
			return 1
		}
	}
	return 0
}

func main() {
	log.Initialize()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}

	// os.Exit skips deferred calls, so close the log file explicitly before
	// applying the exit status.
	log.Close()
	os.Exit(exitCode)
}
