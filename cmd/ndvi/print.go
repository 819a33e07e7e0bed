package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"crop-health-monitor/internal/batch"
	"crop-health-monitor/pkg/models"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

// statusColor colors a health or serving status word
func statusColor(status string) string {
	switch strings.ToLower(status) {
	case "excellent", "good", "healthy", "ok", "serving":
		return good.Sprint(status)
	case "moderate":
		return warn.Sprint(status)
	default:
		return bad.Sprint(status)
	}
}

func printReport(w io.Writer, r *models.AnalyzeResponse) {
	heading.Fprintf(w, "Analysis %s\n", r.ID)
	fmt.Fprintf(w, "Region:  %s (%s), %.2f km2\n", r.Region.Name, r.Region.Kind, r.Region.AreaKm2)
	fmt.Fprintf(w, "Seed:    %d\n", r.Seed)
	if r.Clouds.Enabled {
		fmt.Fprintf(w, "Clouds:  %.1f%% (%s)\n", r.Clouds.CloudPercent, r.Clouds.HandlingLabel)
	} else {
		fmt.Fprintln(w, "Clouds:  disabled")
	}
	if r.Clouds.Warning != "" {
		warn.Fprintln(w, r.Clouds.Warning)
	}
	if r.Clouds.Note != "" {
		fmt.Fprintln(w, r.Clouds.Note)
	}

	if r.NoValidData {
		bad.Fprintln(w, r.Message)
		return
	}

	fmt.Fprintln(w)
	heading.Fprintln(w, "Vegetation classes")
	for _, c := range r.Classes {
		fmt.Fprintf(w, "  %-20s %6.2f%%  %s\n", c.Label, c.Percent, bar(c.Percent))
	}

	if r.Health != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Health:  %.1f/100 %s\n", r.Health.Score, statusColor(r.Health.Status))
		fmt.Fprintln(w, r.Health.Message)
	}
	if r.Stats != nil {
		fmt.Fprintf(w, "NDVI:    min %.3f  mean %.3f  max %.3f\n", r.Stats.Min, r.Stats.Mean, r.Stats.Max)
	}
	if r.Message != "" {
		fmt.Fprintln(w, r.Message)
	}

	printList(w, "Insights", r.Insights)
	printList(w, "Recommendations", r.Recommendations)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// bar draws a percentage as a 25 cell bar
func bar(percent float64) string {
	n := int(percent/4 + 0.5)
	n = max(0, min(n, 25))
	return strings.Repeat("#", n) + strings.Repeat(".", 25-n)
}

func printSummary(w io.Writer, rows []batch.SummaryRow) {
	fmt.Fprintln(w)
	heading.Fprintf(w, "%-22s %8s %8s  %-10s %s\n", "Region", "Clouds", "Score", "Status", "Dominant")
	for _, row := range rows {
		if row.Error != "" {
			fmt.Fprintf(w, "%-22s %s\n", row.Region, bad.Sprint("error: "+row.Error))
			continue
		}
		fmt.Fprintf(w, "%-22s %7.1f%% %8.1f  %-10s %s\n",
			row.Region, row.CloudPercent, row.HealthScore, statusColor(row.Status), row.Dominant)
	}
}

func printLocations(w io.Writer, resp *models.LocationsResponse) {
	heading.Fprintln(w, "Locations")
	for _, loc := range resp.Locations {
		fmt.Fprintf(w, "  %-24s %8.4f, %9.4f  zoom %d\n", loc.Name, loc.Center.Lat, loc.Center.Lon, loc.Zoom)
	}
	heading.Fprintln(w, "Area sizes")
	for _, size := range resp.AreaSizes {
		fmt.Fprintf(w, "  %-8s %-28s %.2f deg\n", size.Key, size.Label, size.RadiusDegrees)
	}
}
