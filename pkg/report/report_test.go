package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
)

func sampleDocument(t *testing.T) *Document {
	t.Helper()

	seq, err := changepoint.NewSequence("KENYA/riots", []int{1, 0, 2, 5, 7, 6})
	require.NoError(t, err)

	flat := &changepoint.Summary{
		SeriesID:     seq.ID(),
		Changepoints: 0,
		Regimes: []changepoint.RegimeSummary{
			{Regime: 1, RateMean: 3.5, RateLow: 2.1, RateHigh: 5.2},
		},
		Occupancy: [][]float64{{1}, {1}, {1}, {1}, {1}, {1}},
	}

	split := &changepoint.Summary{
		SeriesID:     seq.ID(),
		Changepoints: 1,
		Regimes: []changepoint.RegimeSummary{
			{Regime: 1, RateMean: 1.0, RateLow: 0.4, RateHigh: 1.9},
			{Regime: 2, RateMean: 6.0, RateLow: 4.5, RateHigh: 7.8},
		},
		Occupancy: [][]float64{
			{1, 0}, {1, 0}, {0.9, 0.1}, {0.1, 0.9}, {0, 1}, {0, 1},
		},
		ChangepointEstimates: []int{4},
	}

	models := []ModelReport{
		{
			Changepoints: 0,
			Summary:      flat,
			Marginal:     &changepoint.MarginalLikelihood{SeriesID: seq.ID(), LogMarginal: -18.4},
		},
		{
			Changepoints: 1,
			Summary:      split,
			Marginal:     &changepoint.MarginalLikelihood{SeriesID: seq.ID(), Changepoints: 1, LogMarginal: -14.2},
		},
	}

	return NewDocument(seq, models)
}

func TestNewDocument_SelectsBestModel(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)

	assert.Equal(t, 1, doc.BestChangepoints)
	assert.Equal(t, 1, BestModel(doc.Models))
}

func TestBestModel_SkipsFailedFits(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	doc.Models[1].Marginal = nil

	assert.Equal(t, 0, BestModel(doc.Models))
	assert.Equal(t, -1, BestModel(nil))
}

func TestWrite_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatJSON))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, doc.SeriesID, decoded.SeriesID)
	assert.Equal(t, doc.BestChangepoints, decoded.BestChangepoints)
	assert.Len(t, decoded.Models, 2)
}

func TestWrite_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatYAML))

	var decoded Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, doc.SeriesID, decoded.SeriesID)
	assert.InDelta(t, -14.2, decoded.Models[1].Marginal.LogMarginal, 1e-9)
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	err := Write(&bytes.Buffer{}, sampleDocument(t), "toml")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegimeTable(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	out := RegimeTable(doc.Models[1])

	assert.Contains(t, out, "KENYA/riots")
	assert.Contains(t, out, "6.0000")
	assert.Contains(t, out, "4") // estimated changepoint month
}

func TestComparisonTable_MarksBest(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	out := ComparisonTable(doc)

	assert.Contains(t, out, "-14.2000")
	assert.Contains(t, out, bestMarker)
	// The best row has a zero log Bayes factor against itself.
	assert.Contains(t, out, "0.0000")
}

func TestWritePlot(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)

	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, doc))

	html := buf.String()
	assert.True(t, strings.Contains(html, "regime occupancy"))
	assert.True(t, strings.Contains(html, "echarts"))
}
