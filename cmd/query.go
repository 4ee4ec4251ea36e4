package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Tang0602/Amap/internal/geo"
	"github.com/Tang0602/Amap/internal/model"
	"github.com/Tang0602/Amap/internal/store"
)

var (
	queryDB       string
	queryLimit    int
	queryLat      float64
	queryLon      float64
	queryRadius   float64
	queryCategory string
	queryJSON     bool
)

// openStore opens a store written by extract. It never creates a file.
func openStore() (*store.SQLiteStore, error) {
	path := queryDB
	if path == "" {
		path = cfg.Store.Path
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Errorf("store %s does not exist; run extract first", path)
		}
		return nil, eris.Wrapf(err, "stat store %s", path)
	}
	return store.NewSQLite(path)
}

func limitOrDefault() int {
	if queryLimit > 0 {
		return queryLimit
	}
	return cfg.Search.DefaultLimit
}

// center returns the --lat/--lon point when either flag was given.
func center(cmd *cobra.Command) (*model.Coord, error) {
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lon") {
		return nil, nil
	}
	c := model.Coord{Lat: queryLat, Lon: queryLon}
	if !c.Valid() {
		return nil, eris.Errorf("invalid coordinate %v,%v", queryLat, queryLon)
	}
	return &c, nil
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text POI search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := center(cmd)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.Search(ctx, store.SearchQuery{
			Text:   strings.Join(args, " "),
			Limit:  limitOrDefault(),
			Center: c,
		})
		if err != nil {
			return eris.Wrap(err, "search")
		}
		return printResults(cmd.OutOrStdout(), results)
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List POIs around a coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		c, err := center(cmd)
		if err != nil {
			return err
		}
		if c == nil {
			return eris.New("nearby requires --lat and --lon")
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		radius := geo.ClampRadius(queryRadius, cfg.Search.DefaultRadiusM, geo.MinRadiusMeters, cfg.Search.MaxRadiusM)
		results, err := st.Nearby(ctx, store.NearbyQuery{
			Center:   *c,
			RadiusM:  radius,
			Category: queryCategory,
			Limit:    limitOrDefault(),
		})
		if err != nil {
			return eris.Wrap(err, "nearby")
		}
		return printResults(cmd.OutOrStdout(), results)
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category [main-category]",
	Short: "List POIs of a category, or category counts without an argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := center(cmd)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 0 {
			counts, err := st.CategoryCounts(ctx)
			if err != nil {
				return eris.Wrap(err, "category counts")
			}
			return printCounts(cmd.OutOrStdout(), counts)
		}

		results, err := st.ByCategory(ctx, args[0], c, limitOrDefault())
		if err != nil {
			return eris.Wrap(err, "category")
		}
		return printResults(cmd.OutOrStdout(), results)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store metadata, category totals and index health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		md, err := st.Metadata(ctx)
		if err != nil {
			return err
		}
		totals, err := st.CategoryTotals(ctx)
		if err != nil {
			return err
		}
		report, err := st.CheckIndexes(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if queryJSON {
			return writeJSON(out, map[string]any{
				"metadata":   md,
				"categories": totals,
				"indexes":    report,
			})
		}

		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(out, "=== Metadata ===")
		for _, k := range keys {
			fmt.Fprintf(out, "%-12s %s\n", k, md[k])
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Categories ===")
		for _, t := range totals {
			fmt.Fprintf(out, "%-12s %d\n", t.Main, t.Count)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Indexes ===")
		fmt.Fprintf(out, "poi rows:     %d\n", report.POIRows)
		fmt.Fprintf(out, "spatial rows: %d\n", report.SpatialRows)
		fmt.Fprintf(out, "fts rows:     %d\n", report.FTSRows)
		fmt.Fprintf(out, "consistent:   %t\n", report.Consistent())
		return nil
	},
}

func printResults(w io.Writer, results []model.POIResult) error {
	if queryJSON {
		return writeJSON(w, results)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tLAT\tLON\tDISTANCE\tADDRESS")
	for _, r := range results {
		dist := "-"
		if r.Distance != nil {
			dist = fmt.Sprintf("%.0fm", *r.Distance)
		}
		addr := "-"
		if r.Address != nil {
			addr = *r.Address
		}
		fmt.Fprintf(tw, "%d\t%s\t%s/%s\t%.6f\t%.6f\t%s\t%s\n",
			r.ID, r.Name, r.MainCategory, r.SubCategory, r.Lat, r.Lon, dist, addr)
	}
	return tw.Flush()
}

func printCounts(w io.Writer, counts []model.CategoryCount) error {
	if queryJSON {
		return writeJSON(w, counts)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MAIN\tSUB\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Main, c.Sub, c.Count)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, nearbyCmd, categoryCmd, statsCmd} {
		c.Flags().StringVar(&queryDB, "db", "", "SQLite store path (default store.path)")
		c.Flags().BoolVar(&queryJSON, "json", false, "print JSON")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{searchCmd, nearbyCmd, categoryCmd} {
		c.Flags().IntVar(&queryLimit, "limit", 0, "maximum results (default search.default_limit)")
		c.Flags().Float64Var(&queryLat, "lat", 0, "latitude of the reference point")
		c.Flags().Float64Var(&queryLon, "lon", 0, "longitude of the reference point")
	}
	nearbyCmd.Flags().Float64Var(&queryRadius, "radius", 0, "search radius in meters (default search.default_radius_m)")
	nearbyCmd.Flags().StringVar(&queryCategory, "category", "", "main category filter")
}
