// Package insight turns computed NDVI statistics into the narrative part of a report:
// the health status message, class-driven insights, cloud notes and recommendations.
package insight

import (
	"fmt"

	"crop-health-monitor/internal/ndvi"
)

// NoDataMessage is reported instead of a health assessment when every pixel is cloud
const NoDataMessage = "Unable to perform analysis due to excessive cloud coverage. Please try a different date or area."

// DefaultInsight is used when no class share crosses its threshold
const DefaultInsight = "The area shows a mixed pattern of vegetation health. Regular monitoring is recommended."

// Cloud percentages above which the report mentions clouds
const (
	CloudWarningPercent  = 30.0
	CloudInsightPercent  = 20.0
	AnalyzedAreaPercent  = 10.0
	cloudRecommendPrefix = "Acquire additional satellite imagery with lower cloud coverage for more accurate analysis"
)

var statusMessages = map[ndvi.Status]string{
	ndvi.StatusExcellent: "Crop health is excellent! The vegetation in this area shows optimal photosynthetic activity.",
	ndvi.StatusGood:      "Crop health is good. Most of the area has healthy vegetation.",
	ndvi.StatusModerate:  "Crop health is moderate. Consider monitoring irrigation and nutrient levels.",
	ndvi.StatusPoor:      "Crop health is poor. Immediate attention may be required to address potential issues.",
}

// StatusMessage returns the sentence describing a health status
func StatusMessage(s ndvi.Status) string {
	return statusMessages[s]
}

// Clouds describes the simulated cloud cover seen by the report
type Clouds struct {
	Enabled bool
	Percent float64
}

func (c Clouds) over(threshold float64) bool {
	return c.Enabled && c.Percent > threshold
}

// Warning returns the high cloud coverage warning, or "" below the threshold
func (c Clouds) Warning() string {
	if !c.over(CloudWarningPercent) {
		return ""
	}
	return fmt.Sprintf("High cloud coverage (%.1f%%) may affect analysis accuracy.", c.Percent)
}

// AnalyzedNote tells which share of the area was cloud-free, or "" for light cover
func (c Clouds) AnalyzedNote() string {
	if !c.over(AnalyzedAreaPercent) {
		return ""
	}
	return fmt.Sprintf("Analysis performed on %.1f%% of the area (cloud-free pixels).", 100-c.Percent)
}

type classRule struct {
	label     string
	threshold float64
	format    string
}

var classRules = []classRule{
	{ndvi.LabelWater, 15, "Significant non-vegetative area detected (%.1f%%). This may include water bodies, bare soil, or artificial surfaces."},
	{ndvi.LabelSparse, 30, "Large portions of sparse vegetation (%.1f%%) indicate potential crop stress or early growth stages."},
	{ndvi.LabelModerate, 40, "Predominant moderate vegetation (%.1f%%) suggests developing crops that may benefit from additional nutrients."},
	{ndvi.LabelGood, 40, "Significant healthy vegetation (%.1f%%) indicates well-maintained crops with good photosynthetic activity."},
	{ndvi.LabelDense, 30, "High proportion of dense vegetation (%.1f%%) shows excellent crop development and optimal growing conditions."},
}

// Insights lists the observations triggered by class shares and cloud cover
func Insights(p ndvi.ClassPercentages, clouds Clouds) []string {
	var out []string
	for _, rule := range classRules {
		if pct := p.Get(rule.label); pct > rule.threshold {
			out = append(out, fmt.Sprintf(rule.format, pct))
		}
	}
	if clouds.over(CloudInsightPercent) {
		out = append(out, fmt.Sprintf("Significant cloud coverage (%.1f%%) detected. Consider acquiring additional imagery with lower cloud coverage for more accurate analysis.", clouds.Percent))
	}
	if len(out) == 0 {
		out = append(out, DefaultInsight)
	}
	return out
}

// Recommendations returns the management advice; heavy cloud cover puts new imagery first
func Recommendations(p ndvi.ClassPercentages, clouds Clouds) []string {
	recs := []string{
		fmt.Sprintf("Focus irrigation on areas showing sparse vegetation (orange regions - %.1f%% of area)", p.Get(ndvi.LabelSparse)),
		fmt.Sprintf("Apply targeted fertilizer to boost moderate vegetation areas (yellow regions - %.1f%% of area)", p.Get(ndvi.LabelModerate)),
		"Monitor temporal changes in NDVI to track crop development over time",
		"Consider soil testing in areas with consistently low NDVI values",
		"Implement crop rotation strategies for the next season in underperforming regions",
	}
	if clouds.over(CloudWarningPercent) {
		recs = append([]string{cloudRecommendPrefix}, recs...)
	}
	return recs
}

// Report is the narrative of one analysis
type Report struct {
	Message         string
	Warning         string
	Note            string
	Insights        []string
	Recommendations []string
}

// Build assembles the narrative. Without valid data only the no-data message and the
// cloud notes are set.
func Build(p ndvi.ClassPercentages, h ndvi.Health, clouds Clouds) Report {
	r := Report{
		Warning: clouds.Warning(),
		Note:    clouds.AnalyzedNote(),
	}
	if !p.HasValidData() {
		r.Message = NoDataMessage
		return r
	}
	r.Message = StatusMessage(h.Status)
	r.Insights = Insights(p, clouds)
	r.Recommendations = Recommendations(p, clouds)
	return r
}
