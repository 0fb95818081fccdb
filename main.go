package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"logomotion/config"
	"logomotion/credential"
	"logomotion/gemini"
	"logomotion/media"
	"logomotion/tui"
	"logomotion/workflow"
)

// Build info - set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F472B6")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A78BFA")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// globalOptions are the flags accepted before any subcommand.
type globalOptions struct {
	configPath string
	version    bool
	update     bool
	args       []string
}

func parseGlobalArgs(args []string, output io.Writer) (*globalOptions, error) {
	opts := &globalOptions{}

	fs := flag.NewFlagSet("logomotion", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.BoolVar(&opts.version, "version", false, "Print version information")
	fs.BoolVar(&opts.version, "v", false, "Print version information (short)")
	fs.BoolVar(&opts.update, "update", false, "Update to the latest release")
	fs.Usage = func() {
		fmt.Fprint(output, usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.args = fs.Args()
	return opts, nil
}

const usage = `logomotion - turn a logo into an animated video with Gemini

USAGE:
    logomotion [OPTIONS]                 Start the interactive UI
    logomotion [OPTIONS] generate ...    Run the pipeline without the UI

OPTIONS:
    -config <path>     YAML config file (or LOGOMOTION_CONFIG)
    -version, -v       Print version information
    -update            Update to the latest release

Run 'logomotion generate -h' for generate options.
`

func main() {
	opts, err := parseGlobalArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("logomotion %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  go:     %s\n", runtime.Version())
		fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.update {
		if err := selfUpdate(ctx, cfg.UpdateRepo, version); err != nil {
			fmt.Println(errorStyle.Render("Update failed: " + err.Error()))
			os.Exit(1)
		}
		return
	}

	if len(opts.args) > 0 && opts.args[0] == "generate" {
		genOpts, err := parseGenerateArgs(opts.args[1:], os.Stderr)
		if err != nil {
			if errors.Is(err, flag.ErrHelp) {
				os.Exit(0)
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			os.Exit(2)
		}
		if err := runGenerate(ctx, cfg, logger, genOpts); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			os.Exit(1)
		}
		return
	}
	if len(opts.args) > 0 {
		fmt.Println(errorStyle.Render("Unknown command: " + opts.args[0]))
		fmt.Print(usage)
		os.Exit(2)
	}

	if err := runInteractive(ctx, cfg, logger); err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}
}

// app holds the wired components shared by the UI and the generate command.
type app struct {
	host  *credential.EnvHost
	gate  *credential.Gate
	store *media.ObjectStore
	ctrl  *workflow.Controller
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, host *credential.EnvHost) (*app, error) {
	store, err := media.NewObjectStore(cfg.OutputDir, logger.Named("objects"))
	if err != nil {
		return nil, err
	}

	gate := credential.NewGate(host, logger.Named("credential"))
	gate.HasCredential(ctx)

	factory := gemini.NewFactory(
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithTimeout(cfg.Timeout),
		gemini.WithImageModel(cfg.ImageModel),
		gemini.WithVideoModel(cfg.VideoModel),
		gemini.WithPollInterval(cfg.PollInterval),
		gemini.WithLogger(logger.Named("gemini")),
		gemini.WithObjectStore(store),
	)

	ctrl := workflow.NewController(gate, host, workflow.ClientFactory(factory), store, logger.Named("workflow"))

	return &app{host: host, gate: gate, store: store, ctrl: ctrl}, nil
}

func (a *app) Close() error {
	return errors.Join(a.ctrl.Close(), a.store.Close())
}

func runInteractive(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger, credential.NewEnvHost(nil))
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, a.ctrl, a.gate)
}
