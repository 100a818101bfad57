// Command schema-report walks the measurements of one backend and renders a
// Markdown inventory: per measurement its tag keys, tag cardinality hints
// and field keys. Useful as living documentation of what a database holds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"influxkit"
	"influxkit/influx"
	"influxkit/infrastructure/log"
)

var logger = log.NewLogger("schema-report")

func main() {
	profile := flag.String("profile", "", "connection profile name")
	out := flag.String("out", "", "output file, defaults to stdout")
	limit := flag.Int("limit", 0, "report at most this many measurements, 0 for all")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	if *profile == "" {
		fmt.Fprintln(os.Stderr, "usage: schema-report -profile <name> [-out report.md]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	client, err := influxkit.OpenProfile(ctx, *profile)
	if err != nil {
		logger.WithError(err).Fatal("cannot open profile")
	}
	defer client.Close()

	report, err := buildReport(ctx, client, *profile, *limit)
	if err != nil {
		logger.WithError(err).Fatal("cannot build report")
	}
	if *out == "" {
		fmt.Print(report)
		return
	}
	if err := os.WriteFile(*out, []byte(report), 0o644); err != nil {
		logger.WithError(err).Fatal("cannot write report")
	}
	logger.WithField("path", *out).Info("report written")
}

func buildReport(ctx context.Context, client influx.Client, profile string, limit int) (string, error) {
	measurements, err := client.ListMeasurements(ctx, "")
	if err != nil {
		return "", err
	}
	sort.Strings(measurements)
	if limit > 0 && len(measurements) > limit {
		measurements = measurements[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Schema report: %s\n\n", profile)
	fmt.Fprintf(&b, "Generated %s, backend v%d, %d measurements.\n\n",
		time.Now().UTC().Format(time.RFC3339), client.Version(), len(measurements))

	for _, m := range measurements {
		schema, err := client.GetMeasurementSchema(ctx, m, "")
		if err != nil {
			logger.WithError(err).WithField("measurement", m).Warn("skipping measurement")
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", m)
		if len(schema.Tags) == 0 {
			b.WriteString("No tag keys.\n\n")
		} else {
			b.WriteString("| Tag key | Values |\n|---|---|\n")
			for _, tag := range schema.Tags {
				values, err := client.GetTagValues(ctx, m, tag, "")
				if err != nil {
					fmt.Fprintf(&b, "| %s | (error: %s) |\n", tag, err)
					continue
				}
				fmt.Fprintf(&b, "| %s | %s |\n", tag, summarizeValues(values))
			}
			b.WriteString("\n")
		}
		if len(schema.Fields) == 0 {
			b.WriteString("No field keys.\n\n")
			continue
		}
		b.WriteString("| Field key | Type |\n|---|---|\n")
		for _, key := range sortedFieldKeys(schema.Fields) {
			typ := schema.Fields[key]
			if typ == "" {
				typ = "-"
			}
			fmt.Fprintf(&b, "| %s | %s |\n", key, typ)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// summarizeValues keeps short value lists verbatim and reports only the
// count for high-cardinality tags.
func summarizeValues(values []string) string {
	const maxListed = 8
	if len(values) <= maxListed {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s, ... (%d values)", strings.Join(values[:maxListed], ", "), len(values))
}

func sortedFieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
