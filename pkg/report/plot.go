package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "1100px"
	chartHeight = "450px"
	lineWidth   = 2
)

// WritePlot renders an HTML page with one chart pair per fitted model: the
// observed counts with the posterior rate overlay, and the per-month regime
// occupancy probabilities.
func WritePlot(w io.Writer, doc *Document) error {
	page := components.NewPage()
	page.PageTitle = "changefang: " + doc.SeriesID

	for _, m := range doc.Models {
		if m.Summary == nil {
			continue
		}

		page.AddCharts(countChart(doc, m), occupancyChart(doc, m))
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot page: %w", err)
	}

	return nil
}

// countChart overlays the posterior mean rate on the raw counts. The rate
// at month t is the occupancy-weighted mean over regimes.
func countChart(doc *Document, m ModelReport) *charts.Line {
	labels := monthLabels(len(doc.Counts))

	countData := make([]opts.LineData, len(doc.Counts))
	for i, y := range doc.Counts {
		countData[i] = opts.LineData{Value: y}
	}

	rateData := make([]opts.LineData, len(doc.Counts))
	for t := range doc.Counts {
		rate := 0.0
		for j, reg := range m.Summary.Regimes {
			rate += m.Summary.Occupancy[t][j] * reg.RateMean
		}

		rateData[t] = opts.LineData{Value: rate}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: counts, %d changepoint(s)", doc.SeriesID, m.Changepoints),
			Subtitle: "Observed monthly counts with the posterior mean rate overlay.",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Month"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Counts", countData,
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Posterior rate", rateData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Type: "dashed"}),
	)

	return line
}

// occupancyChart shows the posterior probability of each regime per month.
func occupancyChart(doc *Document, m ModelReport) *charts.Line {
	labels := monthLabels(len(doc.Counts))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: regime occupancy, %d changepoint(s)", doc.SeriesID, m.Changepoints),
			Subtitle: "Posterior probability of occupying each regime per month.",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Month"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Probability", Max: 1}),
	)
	line.SetXAxis(labels)

	for j := range m.Summary.Regimes {
		data := make([]opts.LineData, len(doc.Counts))
		for t := range doc.Counts {
			data[t] = opts.LineData{Value: m.Summary.Occupancy[t][j]}
		}

		line.AddSeries(fmt.Sprintf("Regime %d", j+1), data,
			charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.15)}),
		)
	}

	return line
}

func monthLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}

	return labels
}
