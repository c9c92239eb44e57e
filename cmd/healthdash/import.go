// CLAUDE:SUMMARY CLI subcommands that import a wearable export file, list formats, show the import history and print demo data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/healthdash/pkg/export"
	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/importer"
	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

// Exit code for a file that parsed but needs a reviewed mapping.
const exitNeedsMapping = 2

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	output := fs.String("o", "", "output file (default stdout)")
	outFormat := fs.String("format", "json", "output format: json or csv")
	mappingPath := fs.String("mapping", "", "apply a saved mapping file when the file needs mapping")
	writeMapping := fs.String("write-mapping", "", "save the suggested mapping to this file for review")
	auto := fs.Bool("auto", false, "apply the auto-detected mapping without review")
	policy := fs.String("policy", "", "validation policy: first or all (overrides config)")
	charset := fs.String("charset", "", "legacy charset of the input (overrides config)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: healthdash import [flags] <file>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *outFormat != "json" && *outFormat != "csv" {
		fmt.Fprintf(os.Stderr, "unknown output format %q (want json or csv)\n", *outFormat)
		os.Exit(1)
	}
	path := fs.Arg(0)

	logger, level := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	setLevel(level, cfg.LogLevel, logger)
	if *policy != "" {
		cfg.Validation = *policy
	}
	if *charset != "" {
		cfg.Charset = *charset
	}

	history := openHistory(cfg, logger)
	if history != nil {
		defer history.Close()
	}
	im := newImporter(cfg, logger, history)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out, err := im.ImportFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import %s: %v\n", path, err)
		os.Exit(1)
	}
	for _, a := range out.Anomalies {
		fmt.Fprintf(os.Stderr, "warning: %s\n", a)
	}

	records := out.Records
	switch out.Status {
	case importer.StatusEmpty:
		fmt.Fprintf(os.Stderr, "%s: no records\n", path)
	case importer.StatusNeedsMapping:
		s := out.Session
		if *writeMapping != "" {
			f := &mapping.File{SourceFormat: out.Format, Fields: s.Mapping()}
			if err := mapping.WriteFile(*writeMapping, f); err != nil {
				fmt.Fprintf(os.Stderr, "write mapping: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "mapping written to %s\n", *writeMapping)
		}

		switch {
		case *mappingPath != "":
			f, err := mapping.LoadFile(*mappingPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
			if err := s.UseMapping(f.Fields); err != nil {
				fmt.Fprintf(os.Stderr, "mapping %s: %v\n", *mappingPath, err)
				os.Exit(1)
			}
		case *auto:
		default:
			printNeedsMapping(os.Stderr, path, out, s)
			os.Exit(exitNeedsMapping)
		}

		records, err = im.Apply(ctx, s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "apply mapping: %v\n", err)
			os.Exit(1)
		}
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := writeRecords(w, *outFormat, records); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}

func writeRecords(w io.Writer, outFormat string, records []schema.Record) error {
	if records == nil {
		records = []schema.Record{}
	}
	if outFormat == "csv" {
		return export.WriteCSV(w, records)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func printNeedsMapping(w io.Writer, path string, out *importer.Outcome, s *importer.Session) {
	fmt.Fprintf(w, "%s (%s) does not match the canonical schema.\n", path, out.Format)
	for _, v := range out.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Suggested mapping:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sg := range s.Suggestions() {
		src := sg.Source
		if src == "" {
			src = mapping.NotMapped
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", schema.DisplayName(sg.Required), src, sg.Method)
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Review it with -write-mapping <file>, then rerun with -mapping <file>, or accept it with -auto.")
}

func cmdFormats() {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXTENSIONS\tDESCRIPTION")
	for _, a := range format.All() {
		fmt.Fprintf(tw, "%s\t%v\t%s\n", a.ID(), a.Extensions(), a.Description())
	}
	tw.Flush()
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	limit := fs.Int("n", 20, "number of attempts to show")
	fs.Parse(args)

	logger, level := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	setLevel(level, cfg.LogLevel, logger)

	if cfg.HistoryDB == "" {
		fmt.Fprintln(os.Stderr, "import history is disabled (history_db is empty)")
		os.Exit(1)
	}
	h, err := importer.OpenHistory(cfg.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open history: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	attempts, err := h.List(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list history: %v\n", err)
		os.Exit(1)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tFILE\tFORMAT\tSTATUS\tRECORDS\tANOMALIES\tERROR")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			a.ID, a.CreatedAt.Local().Format(time.DateTime), a.File, a.Format, a.Status, a.Records, a.Anomalies, a.Error)
	}
	tw.Flush()
}

func cmdDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	days := fs.Int("days", schema.DemoDays, "number of days, ending today")
	output := fs.String("o", "", "output file (default stdout)")
	outFormat := fs.String("format", "json", "output format: json or csv")
	fs.Parse(args)

	if *days < 1 {
		fmt.Fprintln(os.Stderr, "-days must be at least 1")
		os.Exit(1)
	}
	y, m, d := time.Now().Date()
	records := schema.Demo(time.Date(y, m, d-*days+1, 0, 0, 0, 0, time.UTC), *days)

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := writeRecords(w, *outFormat, records); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}
