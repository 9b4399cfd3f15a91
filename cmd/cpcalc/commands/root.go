package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/cp-performance/internal/adapter/sqlite"
	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/report"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	archivePath string
	verbose     bool
)

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cpcalc",
		Short:        "Charter-party voyage performance calculator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&archivePath, "archive", "", "SQLite report archive (optional)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(calculateCmd(), validateCmd(), reportsCmd(), showCmd())
	return root
}

func openArchive() (*sqlite.Store, error) {
	if archivePath == "" {
		return nil, fmt.Errorf("no archive configured, use --archive")
	}
	return sqlite.Open(archivePath)
}

// readRequest decodes a calculation request file.
func readRequest(path string) (domain.CalculationInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CalculationInput{}, err
	}
	in, err := domain.ParseRequest(domain.RawMessage{Value: data})
	if err != nil {
		return domain.CalculationInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

type jsonOutput struct {
	domain.PerformanceReport
	Summary string       `json:"summary"`
	Rows    []report.Row `json:"rows"`
}

func writeReport(w io.Writer, r domain.PerformanceReport, format string) error {
	switch format {
	case "text":
		return report.Render(w, r)
	case "json":
		data, err := json.MarshalIndent(jsonOutput{PerformanceReport: r, Summary: report.Summary(r), Rows: report.Rows(r)}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown format %q, want text or json", format)
	}
}
