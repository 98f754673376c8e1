package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stepframe/stepframe/pkg/config"
	"github.com/stepframe/stepframe/pkg/export"
	"github.com/stepframe/stepframe/pkg/frame"
	"github.com/stepframe/stepframe/pkg/steps"
	"github.com/stepframe/stepframe/pkg/testmonitor"
)

var (
	fetchStepFilter   string
	fetchResultFilter string
	fetchProjection   []string
	fetchFormat       string
	fetchOutput       string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Query steps and render them as a table",
	Long: `Fetch queries all steps matching the step and result filters,
following pagination until the result set is complete, normalizes them
into a flat table, and writes the rendered table to stdout or to the
configured export backend.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchStepFilter, "step-filter", "",
		"filter expression applied to steps")
	fetchCmd.Flags().StringVar(&fetchResultFilter, "result-filter", "",
		"filter expression applied to the owning results")
	fetchCmd.Flags().StringSliceVar(&fetchProjection, "projection", nil,
		"step fields to retrieve (default all)")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "",
		"output format: csv, markdown, json or yaml (default from config)")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "",
		"export file name; empty writes to stdout")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	projection, err := parseProjection(fetchProjection)
	if err != nil {
		return err
	}

	format := fetchFormat
	if format == "" {
		format = cfg.Export.Format
	}

	if !config.IsValidExportFormat(format) {
		return fmt.Errorf("unknown export format %q", format)
	}

	client, err := testmonitor.New(log, &testmonitor.Config{
		URL:     cfg.Server.URL,
		APIKey:  cfg.Server.APIKey,
		Timeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	ctx := cmd.Context()

	all, err := steps.QueryAll(ctx, client, steps.Query{
		StepFilter:   fetchStepFilter,
		ResultFilter: fetchResultFilter,
		Projection:   projection,
		Take:         cfg.Query.Take,
	})
	if err != nil {
		return err
	}

	log.WithField("steps", len(all)).Info("Fetched steps")

	t, err := frame.Normalize(all)
	if err != nil {
		return fmt.Errorf("normalizing steps: %w", err)
	}

	data, err := export.Render(t, format)
	if err != nil {
		return err
	}

	if fetchOutput == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}

		return nil
	}

	writer, err := exportWriter(cfg)
	if err != nil {
		return err
	}

	name := fetchOutput
	if filepath.Ext(name) == "" {
		name += "." + export.Extension(format)
	}

	location, err := writer.Write(ctx, name, data)
	if err != nil {
		return fmt.Errorf("exporting table: %w", err)
	}

	log.WithFields(logrus.Fields{
		"location": location,
		"rows":     t.RowCount(),
		"columns":  len(t.Columns()),
	}).Info("Exported table")

	return nil
}

// parseProjection converts the --projection flag values into step fields.
func parseProjection(values []string) ([]testmonitor.StepField, error) {
	if len(values) == 0 {
		return nil, nil
	}

	fields := make([]testmonitor.StepField, 0, len(values))

	for _, v := range values {
		f, err := testmonitor.ParseStepField(v)
		if err != nil {
			return nil, fmt.Errorf("invalid projection: %w", err)
		}

		fields = append(fields, f)
	}

	return fields, nil
}

// exportWriter builds the configured export backend. --output requires
// one backend to be enabled.
func exportWriter(cfg *config.Config) (export.Writer, error) {
	switch {
	case cfg.Export.S3 != nil && cfg.Export.S3.Enabled:
		return export.NewS3Writer(log, cfg.Export.S3), nil
	case cfg.Export.Local != nil && cfg.Export.Local.Enabled:
		return export.NewLocalWriter(cfg.Export.Local), nil
	default:
		return nil, fmt.Errorf(
			"no export backend enabled; configure export.local or export.s3",
		)
	}
}
