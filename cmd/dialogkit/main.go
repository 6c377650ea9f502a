// Command dialogkit assembles reasoning prompts from support dialogues and
// records one model reply per seeker turn.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/dialogkit/config"
	"github.com/randalmurphal/dialogkit/dialogue"
	"github.com/randalmurphal/dialogkit/dispatch"
	"github.com/randalmurphal/dialogkit/jsonl"
	"github.com/randalmurphal/dialogkit/logging"
	"github.com/randalmurphal/dialogkit/pipeline"
	_ "github.com/randalmurphal/dialogkit/providers"
)

var rootCmd = &cobra.Command{
	Use:           "dialogkit",
	Short:         "dialogkit - prompt windowing and generation for support dialogues",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a reply for every prompt in the dialogue source",
	RunE:  runRun,
}

var inferCmd = &cobra.Command{
	Use:   "infer [dialog]",
	Short: "Generate a single reply for a dialogue read from the argument or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfer,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the run configuration",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

var tailCmd = &cobra.Command{
	Use:   "tail <file.jsonl>",
	Short: "Follow a response or seeker log",
	Args:  cobra.ExactArgs(1),
	RunE:  runTail,
}

var flattenCmd = &cobra.Command{
	Use:   "flatten <source.json> <output.json>",
	Short: "Convert an utterance-keyed dialogue source to flattened form",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlatten,
}

var (
	configPath string
	envFiles   []string

	modelFlag    string
	startIndex   int
	sampleNumber int
	suffixFlag   string

	singleFlag bool
	spliceFlag bool

	allFlag bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.toml, .yaml or .json); env only when empty")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv files to load (default .env)")

	for _, cmd := range []*cobra.Command{runCmd, inferCmd} {
		cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model family: gpt, gpt-2, gpt-j, ada or davinci")
	}
	runCmd.Flags().IntVar(&startIndex, "start-index", 0, "Number of prompts to skip")
	runCmd.Flags().IntVarP(&sampleNumber, "sample-number", "n", 0, "Number of prompts to generate (0 runs to exhaustion)")
	runCmd.Flags().StringVar(&suffixFlag, "suffix", "", "Output file suffix")

	inferCmd.Flags().BoolVar(&singleFlag, "single", false, "Keep only the last two dialogue lines")
	inferCmd.Flags().BoolVar(&spliceFlag, "splice", false, "Prefix remote replies with \"The seeker \"")

	tailCmd.Flags().BoolVarP(&allFlag, "all", "a", false, "Print existing records before following")

	rootCmd.AddCommand(runCmd, inferCmd, schemaCmd, tailCmd, flattenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dialogkit:", err)
		os.Exit(1)
	}
}

// readConfig loads the config file (or the environment) and applies flag
// overrides. Validation is left to the command.
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("start-index") {
		cfg.StartIndex = startIndex
	}
	if flags.Changed("sample-number") {
		cfg.SampleNumber = sampleNumber
	}
	if flags.Changed("suffix") {
		cfg.ResponseSuffix = suffixFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: level, Console: stderr, Dir: cfg.LogDir}), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return runPipeline(ctx, *cfg, dispatch.PipelineContext{Logger: logger.Logger}, cmd.OutOrStdout())
}

// runPipeline opens and runs a pipeline, printing the stats as JSON.
func runPipeline(ctx context.Context, cfg config.Config, pc dispatch.PipelineContext, stdout io.Writer) error {
	r, err := pipeline.Open(cfg, pc)
	if err != nil {
		return err
	}

	stats, runErr := r.Run(ctx)
	var elem *pipeline.ElementError
	if errors.As(runErr, &elem) && pc.Logger != nil {
		pc.Logger.Error("run aborted; resume with --start-index",
			slog.Int("start_index", elem.Index),
			slog.Any("error", elem.Err))
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return errors.Join(runErr, enc.Encode(stats), r.Close())
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}
	kind, err := cfg.Kind()
	if err != nil {
		return err
	}
	if cfg.TemplatePath == "" {
		return fmt.Errorf("template_path is required")
	}

	dialog, err := readDialog(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	tmpl, err := pipeline.LoadTemplate(*cfg, logger.Logger)
	if err != nil {
		return err
	}
	backend, err := pipeline.NewBackend(*cfg, kind, logger.Logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	res, err := pipeline.Infer(ctx, dispatch.PipelineContext{Logger: logger.Logger, Backend: backend}, kind, tmpl, dialog,
		pipeline.InferOptions{Single: singleFlag, Splice: spliceFlag})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Reply)
	return err
}

// readDialog returns the dialogue from the argument or stdin, with literal
// "\n" sequences expanded and a trailing newline ensured.
func readDialog(args []string, stdin io.Reader) (string, error) {
	var text string
	if len(args) == 1 {
		text = strings.ReplaceAll(args[0], `\n`, "\n")
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read dialog: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty dialog")
	}
	return text + "\n", nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()
	return tail(ctx, args[0], allFlag, cmd.OutOrStdout())
}

// tail prints records appended to path until ctx is done. With all, the
// records already in the file are printed first.
func tail(ctx context.Context, path string, all bool, stdout io.Writer) error {
	t, err := jsonl.OpenTailer(path)
	if err != nil {
		return err
	}
	defer t.Close()

	emit := func(rec json.RawMessage) error {
		_, err := fmt.Fprintln(stdout, string(rec))
		return err
	}
	if all {
		backlog, err := t.Backlog()
		if err != nil {
			return err
		}
		for _, rec := range backlog {
			if err := emit(rec); err != nil {
				return err
			}
		}
	}
	for rec := range t.Follow(ctx) {
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

func runFlatten(cmd *cobra.Command, args []string) error {
	src, err := dialogue.LoadSource(args[0])
	if err != nil {
		return err
	}
	if src.Shape != dialogue.ShapeUtterances {
		return fmt.Errorf("%s: source is already flattened", args[0])
	}
	if err := dialogue.WriteFlattened(args[1], src.Dialogues); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d dialogues to %s\n", len(src.Dialogues), args[1])
	return err
}
