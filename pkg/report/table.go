package report

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

const bestMarker = "◀ best"

// RegimeTable renders the per-regime posterior summary of one model as a
// terminal table.
func RegimeTable(m ModelReport) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Regime", "Rate Mean", "2.5%", "97.5%", "Changepoint Month"})

	for i, reg := range m.Summary.Regimes {
		changeMonth := "-"
		if i > 0 {
			changeMonth = fmt.Sprintf("%d", m.Summary.ChangepointEstimates[i-1])
		}

		tbl.AppendRow(table.Row{
			reg.Regime,
			fmt.Sprintf("%.4f", reg.RateMean),
			fmt.Sprintf("%.4f", reg.RateLow),
			fmt.Sprintf("%.4f", reg.RateHigh),
			changeMonth,
		})
	}

	title := color.New(color.Bold).Sprintf("%s, %d changepoint(s)", m.Summary.SeriesID, m.Changepoints)

	return title + "\n" + tbl.Render()
}

// ComparisonTable renders the model comparison for one series. Log Bayes
// factors are reported against the best model, which gets a marker.
func ComparisonTable(doc *Document) string {
	best := BestModel(doc.Models)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Changepoints", "Log Marginal", "Log Bayes Factor", ""})

	for i, m := range doc.Models {
		if m.Marginal == nil {
			tbl.AppendRow(table.Row{m.Changepoints, "failed", "", ""})
			continue
		}

		marker := ""
		if i == best {
			marker = color.GreenString(bestMarker)
		}

		logBF := m.Marginal.LogMarginal - doc.Models[best].Marginal.LogMarginal

		tbl.AppendRow(table.Row{
			m.Changepoints,
			fmt.Sprintf("%.4f", m.Marginal.LogMarginal),
			fmt.Sprintf("%.4f", logBF),
			marker,
		})
	}

	title := color.New(color.Bold).Sprintf("Model comparison for %s", doc.SeriesID)

	return title + "\n" + tbl.Render()
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}
