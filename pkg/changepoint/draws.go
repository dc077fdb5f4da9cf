package changepoint

// Draw is one retained Gibbs iteration: regime rates, self-transition
// probabilities, and the latent regime path. States are zero-based; the
// report layer converts to one-based regime numbers.
type Draw struct {
	// Rates holds one Poisson rate per regime.
	Rates []float64 `json:"rates"`

	// Stay holds the self-transition probability for each non-terminal
	// state. Empty for a single-regime model.
	Stay []float64 `json:"stay"`

	// Path holds the zero-based regime assignment for each observation.
	Path []int `json:"path"`
}

// Draws is the ordered record of retained posterior draws for one fitted
// model. It is append-only while the engine runs and read-only afterward.
type Draws struct {
	// SeriesID identifies the fitted series.
	SeriesID string `json:"series_id"`

	// Changepoints is the model's changepoint count m.
	Changepoints int `json:"changepoints"`

	// N is the series length.
	N int `json:"n"`

	// Seed is the random seed the run was started with.
	Seed int64 `json:"seed"`

	// Records holds the retained draws in sampling order.
	Records []Draw `json:"records"`
}

// Regimes returns the number of regimes, Changepoints + 1.
func (d *Draws) Regimes() int { return d.Changepoints + 1 }

// Len returns the number of retained draws.
func (d *Draws) Len() int { return len(d.Records) }

func (d *Draws) append(rates, stay []float64, path []int) {
	rec := Draw{
		Rates: make([]float64, len(rates)),
		Stay:  make([]float64, len(stay)),
		Path:  make([]int, len(path)),
	}
	copy(rec.Rates, rates)
	copy(rec.Stay, stay)
	copy(rec.Path, path)

	d.Records = append(d.Records, rec)
}
