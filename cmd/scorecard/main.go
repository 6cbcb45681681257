package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/skridlevsky/legiscore/internal/config"
	"github.com/skridlevsky/legiscore/internal/datasource"
	"github.com/skridlevsky/legiscore/internal/output"
	"github.com/skridlevsky/legiscore/internal/scorecard"
)

const usage = "usage: scorecard [-out FILE] [-columns chamber|all] <tracked-votes-file>"

// UsageError means the command line itself is wrong
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

type options struct {
	trackedFile string
	outFile     string
	columns     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the process exit status: 0 on success, 2 for usage errors,
// 1 for everything else
func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(stderr, usageErr.Msg)
		fmt.Fprintln(stderr, usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := generate(ctx, opts); err != nil {
		fmt.Fprintf(stderr, "scorecard: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("scorecard", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.outFile, "out", "", "output file (default $OUTPUT_FILE or output.csv)")
	fs.StringVar(&opts.columns, "columns", "", "report columns: chamber or all (default $REPORT_COLUMNS)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, &UsageError{Msg: err.Error()}
	}

	if fs.NArg() != 1 {
		return opts, &UsageError{Msg: fmt.Sprintf("expected exactly one tracked-votes file, got %d arguments", fs.NArg())}
	}
	opts.trackedFile = fs.Arg(0)

	info, err := os.Stat(opts.trackedFile)
	if err != nil {
		return opts, &UsageError{Msg: fmt.Sprintf("cannot read tracked-votes file: %v", err)}
	}
	if info.IsDir() {
		return opts, &UsageError{Msg: fmt.Sprintf("%s is a directory", opts.trackedFile)}
	}

	if opts.columns != "" {
		if _, err := scorecard.ParseColumnMode(opts.columns); err != nil {
			return opts, &UsageError{Msg: err.Error()}
		}
	}

	return opts, nil
}

func generate(ctx context.Context, opts options) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if opts.outFile == "" {
		opts.outFile = cfg.OutputFile
	}
	if opts.columns == "" {
		opts.columns = cfg.ReportColumns
	}
	columns, err := scorecard.ParseColumnMode(opts.columns)
	if err != nil {
		return err
	}

	log.Println("Step 1/4: Loading tracked votes...")
	tracked, err := scorecard.LoadTrackedVotesFile(opts.trackedFile)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d tracked votes from %s\n", len(tracked), opts.trackedFile)

	log.Println("Step 2/4: Loading grade scale...")
	scale, err := scorecard.LoadGradeScale(cfg.GradeScaleFile)
	if err != nil {
		return err
	}
	if cfg.GradeScaleFile != "" {
		log.Printf("Using grade scale from %s\n", cfg.GradeScaleFile)
	}

	log.Printf("Step 3/4: Generating scorecard for %s...\n", cfg.State)
	opened, err := datasource.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer opened.Close()

	gen, err := scorecard.NewGenerator(opened.Source, cfg.State, scale, columns)
	if err != nil {
		return err
	}
	report, err := gen.Generate(ctx, tracked)
	if err != nil {
		return err
	}
	for _, section := range report.Chambers {
		log.Printf("  %s: %d legislators, %d columns\n", section.Chamber.Label(), len(section.Rows), len(section.Columns))
	}

	log.Printf("Step 4/4: Writing %s...\n", opts.outFile)
	if err := output.WriteFileAtomic(opts.outFile, 0o644, report.WriteCSV); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Printf("Scorecard complete (run %s)\n", report.ID)
	return nil
}
