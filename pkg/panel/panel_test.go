package panel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
)

const samplePanel = `country,month,riots,demonstrations
KENYA,1,0,2
KENYA,2,1,0
KENYA,3,4,1
GHANA,1,0,0
GHANA,2,2,3
`

func TestLoad_ParsesPanel(t *testing.T) {
	t.Parallel()

	p, err := Load(strings.NewReader(samplePanel))
	require.NoError(t, err)

	assert.Equal(t, []string{"GHANA", "KENYA"}, p.Countries())
	assert.Equal(t, []string{"riots", "demonstrations"}, p.EventTypes())
	assert.Equal(t, 3, p.Months("KENYA"))
	assert.Equal(t, 2, p.Months("GHANA"))
	assert.Equal(t, 0, p.Months("NIGERIA"))
}

func TestSeries_Extraction(t *testing.T) {
	t.Parallel()

	p, err := Load(strings.NewReader(samplePanel))
	require.NoError(t, err)

	seq, err := p.Series("KENYA", "riots")
	require.NoError(t, err)

	assert.Equal(t, "KENYA/riots", seq.ID())
	assert.Equal(t, []int{0, 1, 4}, seq.Counts())

	// Event type lookup is case-insensitive.
	seq, err = p.Series("GHANA", "Demonstrations")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, seq.Counts())
}

func TestSeries_Unknown(t *testing.T) {
	t.Parallel()

	p, err := Load(strings.NewReader(samplePanel))
	require.NoError(t, err)

	_, err = p.Series("NIGERIA", "riots")
	require.ErrorIs(t, err, ErrUnknownSeries)

	_, err = p.Series("KENYA", "coups")
	require.ErrorIs(t, err, ErrUnknownSeries)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		csv  string
		want error
	}{
		{"bad header", "foo,bar,baz\n", ErrBadHeader},
		{"too few columns", "country,month\n", ErrBadHeader},
		{"empty panel", "country,month,riots\n", ErrBadRow},
		{"negative count", "country,month,riots\nKENYA,1,-2\n", ErrBadRow},
		{"bad month", "country,month,riots\nKENYA,zero,1\n", ErrBadRow},
		{"field count mismatch", "country,month,riots\nKENYA,1,2,3\n", ErrBadRow},
		{"month gap", "country,month,riots\nKENYA,1,2\nKENYA,3,1\n", ErrNonContiguous},
		{"month not from one", "country,month,riots\nKENYA,2,1\n", ErrNonContiguous},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(strings.NewReader(tc.csv))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSeries_FeedsEstimator(t *testing.T) {
	t.Parallel()

	p, err := Load(strings.NewReader(samplePanel))
	require.NoError(t, err)

	seq, err := p.Series("KENYA", "riots")
	require.NoError(t, err)

	_, err = changepoint.NewModel(seq, 1, changepoint.DefaultPriors())
	require.NoError(t, err)
}
