package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"go.uber.org/zap"

	"logomotion/config"
	"logomotion/credential"
	"logomotion/gemini"
	"logomotion/media"
)

// GenerateOptions holds the flags of the generate command
type GenerateOptions struct {
	Logo    string
	Upload  string
	Animate string
	Aspect  gemini.AspectRatio
	Out     string
	Quiet   bool
}

const generateUsage = `Generate a logo (or use an existing image) and animate it.

USAGE:
    logomotion generate -logo "<description>" -animate "<motion>" [OPTIONS]
    logomotion generate -upload <image> -animate "<motion>" [OPTIONS]

OPTIONS:
    -logo <text>        Describe the logo to generate
    -upload <path>      Use an existing PNG, JPEG, GIF or WebP image
    -animate <text>     Describe how the logo should move (required)
    -aspect <ratio>     16:9 (default) or 9:16
    -out <dir>          Directory for the logo and video (default ".")
    -quiet              Only print the saved paths
`

func parseGenerateArgs(args []string, output io.Writer) (*GenerateOptions, error) {
	opts := &GenerateOptions{}
	var aspect string

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.Logo, "logo", "", "Describe the logo to generate")
	fs.StringVar(&opts.Upload, "upload", "", "Use an existing image")
	fs.StringVar(&opts.Animate, "animate", "", "Describe how the logo should move")
	fs.StringVar(&aspect, "aspect", gemini.AspectLandscape.Ratio(), "16:9 or 9:16")
	fs.StringVar(&opts.Out, "out", ".", "Output directory")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Only print the saved paths")
	fs.Usage = func() {
		fmt.Fprint(output, generateUsage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	opts.Logo = strings.TrimSpace(opts.Logo)
	opts.Upload = strings.TrimSpace(opts.Upload)
	opts.Animate = strings.TrimSpace(opts.Animate)

	switch {
	case opts.Logo == "" && opts.Upload == "":
		return nil, errors.New("one of -logo or -upload is required")
	case opts.Logo != "" && opts.Upload != "":
		return nil, errors.New("-logo and -upload cannot be used together")
	case opts.Animate == "":
		return nil, errors.New("-animate is required")
	}

	ratio, ok := gemini.ParseAspectRatio(aspect)
	if !ok {
		return nil, fmt.Errorf("invalid aspect ratio %q (use 16:9 or 9:16)", aspect)
	}
	opts.Aspect = ratio

	if opts.Upload != "" && !media.IsImageFile(opts.Upload) {
		return nil, fmt.Errorf("unsupported image type: %s", opts.Upload)
	}
	return opts, nil
}

// runGenerate drives the workflow without the interactive UI
func runGenerate(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts *GenerateOptions) error {
	host := credential.NewEnvHost(nil)
	if host.APIKey() == "" {
		fmt.Println(boxStyle.Render(credential.GetAPIKeyHelp()))
		return errors.New("GEMINI_API_KEY is not set")
	}

	a, err := newApp(ctx, cfg, logger, host)
	if err != nil {
		return err
	}
	defer a.Close()

	if !opts.Quiet {
		fmt.Println(titleStyle.Render("logomotion " + version))
	}

	// Step 1: logo
	var logoErr error
	title := "Generating logo..."
	action := func() { logoErr = a.ctrl.GenerateLogo(ctx, opts.Logo) }
	if opts.Upload != "" {
		title = "Loading " + opts.Upload + "..."
		action = func() { logoErr = a.ctrl.UploadLogo(ctx, opts.Upload) }
	}
	if err := runStep(opts.Quiet, title, action); err != nil {
		return err
	}
	if logoErr != nil {
		return logoErr
	}

	logoPath, err := a.ctrl.SaveLogo(opts.Out)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Println(successStyle.Render("Logo ready: ") + logoPath)
	}

	// Step 2: video. Status lines replace the spinner so every message shows.
	start := time.Now()
	onStatus := func(status string) {
		if !opts.Quiet {
			fmt.Println(infoStyle.Render(fmt.Sprintf("  [%s] %s", formatElapsed(time.Since(start)), status)))
		}
	}
	if !opts.Quiet {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Animating (%s). This usually takes a few minutes.", opts.Aspect.Ratio())))
	}
	if err := a.ctrl.Animate(ctx, opts.Animate, opts.Aspect, onStatus); err != nil {
		return err
	}

	videoPath, err := a.ctrl.SaveVideo(opts.Out)
	if err != nil {
		return err
	}

	if opts.Quiet {
		fmt.Println(logoPath)
		fmt.Println(videoPath)
		return nil
	}

	state := a.ctrl.Snapshot()
	var size string
	if state.Video != nil {
		size = media.FormatSize(state.Video.Size)
	}
	summary := fmt.Sprintf("%s\n\nLogo:  %s\nVideo: %s (%s)\nTime:  %s",
		successStyle.Render("Done!"), logoPath, videoPath, size, formatElapsed(time.Since(start)))
	fmt.Println(boxStyle.Render(summary))
	return nil
}

// runStep shows a spinner around action unless quiet is set
func runStep(quiet bool, title string, action func()) error {
	if quiet || !isTerminal(os.Stdout) {
		action()
		return nil
	}
	return spinner.New().
		Title(title).
		Action(action).
		Run()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}
