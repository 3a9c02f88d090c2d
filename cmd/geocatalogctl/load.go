package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geocatalog/pkg/catalog"
)

type loadOptions struct {
	name          string
	kind          string
	url           string
	graphID       string
	assetField    string
	nameField     string
	positionField string
	scaleField    string
	defaultScale  float64
	noProbe       bool
	concurrency   int
	probeRate     float64
	proxy         string
	forceProxy    bool
	timeout       time.Duration
	output        string
}

var loadOpts loadOptions

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load one group and print its items",
	Long: `Runs a single load of an Arches (pointcloud, bim) or SensorThings group
and prints the materialized items followed by a summary of skipped records.
Skipped records never fail the command; fetch and configuration errors do.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&loadOpts.name, "name", "cli", "group name used for item ids")
	f.StringVar(&loadOpts.kind, "kind", string(catalog.KindPointCloud), "pointcloud, bim or sensorthings")
	f.StringVar(&loadOpts.url, "url", "", "Arches or SensorThings base URL")
	f.StringVar(&loadOpts.graphID, "graph-id", "", "Arches resource graph id")
	f.StringVar(&loadOpts.assetField, "asset-field", "", "tile field holding the asset URL")
	f.StringVar(&loadOpts.nameField, "name-field", "", "tile field holding the display name")
	f.StringVar(&loadOpts.positionField, "position-field", "", "tile field holding a GeoJSON position")
	f.StringVar(&loadOpts.scaleField, "scale-field", "", "tile field holding the model scale")
	f.Float64Var(&loadOpts.defaultScale, "default-scale", 1.0, "scale used when the scale field is empty")
	f.BoolVar(&loadOpts.noProbe, "no-probe", false, "skip HEAD probes of asset URLs")
	f.IntVar(&loadOpts.concurrency, "concurrency", 8, "records materialized at once")
	f.Float64Var(&loadOpts.probeRate, "probe-rate", 0, "maximum probes per second (0 = unlimited)")
	f.StringVar(&loadOpts.proxy, "proxy", "", "CORS/caching proxy base URL")
	f.BoolVar(&loadOpts.forceProxy, "force-proxy", false, "route every request through --proxy")
	f.DurationVar(&loadOpts.timeout, "timeout", 5*time.Minute, "overall load timeout")
	f.StringVarP(&loadOpts.output, "output", "o", "table", "output format: json or table")
	_ = loadCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	o := loadOpts
	if o.output != "json" && o.output != "table" {
		return fmt.Errorf("unknown output format %q", o.output)
	}

	opts := []catalog.Option{
		catalog.WithConcurrency(o.concurrency),
		catalog.WithProbeRate(o.probeRate),
		catalog.WithLogger(commandLogger(cmd)),
	}
	if o.proxy != "" {
		opts = append(opts, catalog.WithProxy(o.proxy))
	}
	client, err := newLoader(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	items, sum, err := client.Load(ctx, catalog.Group{
		Name:          o.name,
		Kind:          catalog.Kind(o.kind),
		URL:           o.url,
		GraphID:       o.graphID,
		AssetField:    o.assetField,
		NameField:     o.nameField,
		PositionField: o.positionField,
		ScaleField:    o.scaleField,
		DefaultScale:  o.defaultScale,
		SkipProbe:     o.noProbe,
		ForceProxy:    o.forceProxy,
	})
	if err != nil && sum.LoadID == "" {
		return fmt.Errorf("load failed: %w", err)
	}

	if o.output == "json" {
		if werr := writeJSON(cmd.OutOrStdout(), items, sum); werr != nil {
			return werr
		}
	} else {
		writeTable(cmd.OutOrStdout(), items, sum)
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, items []catalog.Item, sum catalog.Summary) error {
	if items == nil {
		items = []catalog.Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summary catalog.Summary `json:"summary"`
		Items   []catalog.Item  `json:"items"`
	}{sum, items})
}

func writeTable(w io.Writer, items []catalog.Item, sum catalog.Summary) {
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		pos := ""
		if it.Origin != nil {
			pos = strconv.FormatFloat(it.Origin.Longitude, 'f', 6, 64) + ", " +
				strconv.FormatFloat(it.Origin.Latitude, 'f', 6, 64)
		}
		scale := ""
		if it.Scale != nil {
			scale = strconv.FormatFloat(*it.Scale, 'g', -1, 64)
		}
		rows = append(rows, []string{it.Name, it.Type, pos, scale, it.URL})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "TYPE", "POSITION", "SCALE", "URL").
		Rows(rows...)
	_, _ = fmt.Fprintln(w, t.Render())

	_, _ = fmt.Fprintf(w, "%s: %d records, %d items", sum.Status, sum.Records, sum.Items)
	reasons := make([]string, 0, len(sum.Skipped))
	for r := range sum.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		_, _ = fmt.Fprintf(w, ", %s=%d", r, sum.Skipped[r])
	}
	_, _ = fmt.Fprintf(w, " (%s)\n", sum.Duration().Round(time.Millisecond))
}
