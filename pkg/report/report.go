// Package report renders fitted changepoint models for human and machine
// consumers: terminal tables, HTML plot pages, and JSON/YAML documents. It
// consumes only posterior summaries and marginal likelihoods; it never
// touches the sampler.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
)

// Output formats for serialized reports.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat indicates an unknown serialization format.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ModelReport holds the reportable artifacts of one fitted model.
type ModelReport struct {
	Changepoints int                             `json:"changepoints" yaml:"changepoints"`
	Summary      *changepoint.Summary            `json:"summary" yaml:"summary"`
	Marginal     *changepoint.MarginalLikelihood `json:"marginal" yaml:"marginal"`
}

// Document is the full report for one series across candidate models.
type Document struct {
	SeriesID string        `json:"series_id" yaml:"series_id"`
	Counts   []int         `json:"counts" yaml:"counts"`
	Models   []ModelReport `json:"models" yaml:"models"`

	// BestChangepoints is the changepoint count with the strictly
	// greatest log marginal likelihood, -1 if no model was fitted.
	BestChangepoints int `json:"best_changepoints" yaml:"best_changepoints"`
}

// NewDocument assembles a report document and selects the best model by
// marginal likelihood.
func NewDocument(seq *changepoint.Sequence, models []ModelReport) *Document {
	doc := &Document{
		SeriesID:         seq.ID(),
		Counts:           seq.Counts(),
		Models:           models,
		BestChangepoints: -1,
	}

	if best := BestModel(models); best >= 0 {
		doc.BestChangepoints = models[best].Changepoints
	}

	return doc
}

// BestModel returns the index of the model with the strictly greatest log
// marginal likelihood, -1 when models is empty.
func BestModel(models []ModelReport) int {
	best := -1

	for i, m := range models {
		if m.Marginal == nil {
			continue
		}

		if best < 0 || m.Marginal.LogMarginal > models[best].Marginal.LogMarginal {
			best = i
		}
	}

	return best
}

// Write serializes the document in the requested format.
func Write(w io.Writer, doc *Document, format string) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(doc)
		if err != nil {
			return fmt.Errorf("json encode: %w", err)
		}

		return nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("yaml marshal: %w", err)
		}

		_, err = w.Write(data)
		if err != nil {
			return fmt.Errorf("yaml write: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
