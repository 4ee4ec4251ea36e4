package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tang0602/Amap/internal/classify"
	"github.com/Tang0602/Amap/internal/extract"
	"github.com/Tang0602/Amap/internal/osmsource"
	"github.com/Tang0602/Amap/internal/pipeline"
	"github.com/Tang0602/Amap/internal/store"
)

var (
	extractInput     string
	extractOutput    string
	extractBatchSize int
	extractRules     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a POI store from an OSM export",
	Long:  "Streams an .osm.pbf or .osm file, classifies and extracts POIs, and writes a new SQLite store. An existing output file is replaced.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if extractBatchSize > 0 {
			cfg.Extract.BatchSize = extractBatchSize
		}
		if extractRules != "" {
			cfg.Classify.RulesFile = extractRules
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		output := extractOutput
		if output == "" {
			output = cfg.Store.Path
		}

		rules, err := loadRules(cfg.Classify.RulesFile)
		if err != nil {
			return err
		}

		src, err := osmsource.Open(ctx, extractInput)
		if err != nil {
			return eris.Wrap(err, "extract: open input")
		}
		defer src.Close() //nolint:errcheck

		st, err := store.Create(ctx, output)
		if err != nil {
			return eris.Wrap(err, "extract: create store")
		}
		defer st.Close() //nolint:errcheck

		res, err := pipeline.Run(ctx, src, st, pipeline.Options{
			BatchSize:  cfg.Extract.BatchSize,
			SourceName: filepath.Base(extractInput),
			Extract: extract.Options{
				TagsMaxLen:        cfg.Extract.TagsMaxLen,
				HouseNumberSuffix: cfg.Extract.HouseNumberSuffix,
			},
			Rules:   rules,
			Version: cfg.Store.Version,
		})
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		if res.Empty() {
			zap.L().Warn("extract: no POIs found in input", zap.String("input", extractInput))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Nodes:      %d\n", res.Nodes)
		fmt.Fprintf(out, "Ways:       %d\n", res.Ways)
		fmt.Fprintf(out, "Relations:  %d\n", res.Relations)
		fmt.Fprintf(out, "POIs:       %d\n", res.Written)
		fmt.Fprintf(out, "Skipped:    %d\n", res.Skipped())
		for _, o := range extract.Outcomes() {
			if o == extract.Accepted || res.Outcomes[o] == 0 {
				continue
			}
			fmt.Fprintf(out, "  %-16s %d\n", o.String(), res.Outcomes[o])
		}
		fmt.Fprintf(out, "Output:     %s\n", output)
		return nil
	},
}

func loadRules(path string) (*classify.Rules, error) {
	if path == "" {
		return classify.Default(), nil
	}
	rules, err := classify.LoadRules(path)
	if err != nil {
		return nil, eris.Wrap(err, "extract: load rules")
	}
	zap.L().Info("extract: using rule file", zap.String("path", path), zap.Int("rules", rules.Len()))
	return rules, nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "path to .osm.pbf or .osm file (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output SQLite path (default store.path)")
	extractCmd.Flags().IntVar(&extractBatchSize, "batch-size", 0, "records per write transaction (default extract.batch_size)")
	extractCmd.Flags().StringVar(&extractRules, "rules", "", "YAML category rule file")
	_ = extractCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(extractCmd)
}
