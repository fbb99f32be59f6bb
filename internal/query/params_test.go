package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_Defaults(t *testing.T) {
	p, err := ParseParams(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, FormatHTML, p.Output)
	assert.Equal(t, SortNewest, p.Sort)
	assert.Equal(t, -1, p.Max)
	assert.Empty(t, p.StartDate)
	assert.Nil(t, p.Center)
}

func TestParseParams_All(t *testing.T) {
	v, _ := url.ParseQuery("output=JSON&start_date=2024-01-01&end_date=2024-12-31&lat=47.3&lng=8.5&dist=12.5&max=7&sort=oldest")
	p, err := ParseParams(v)
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, p.Output)
	assert.Equal(t, "2024-01-01", p.StartDate)
	assert.Equal(t, "2024-12-31", p.EndDate)
	require.NotNil(t, p.Center)
	assert.InDelta(t, 47.3, p.Center.Lat, 0)
	assert.InDelta(t, 8.5, p.Center.Lon, 0)
	assert.InDelta(t, 12.5, p.RadiusKm, 0)
	assert.Equal(t, 7, p.Max)
	assert.Equal(t, SortOldest, p.Sort)
}

func TestParseParams_UnknownOutputFallsBackToHTML(t *testing.T) {
	p, err := ParseParams(url.Values{"output": {"xml"}})
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, p.Output)
}

func TestParseParams_Errors(t *testing.T) {
	tests := []struct {
		query string
		param string
	}{
		{"start_date=yesterday", "start_date"},
		{"end_date=2024-13-01", "end_date"},
		{"lat=north&lng=8&dist=1", "lat"},
		{"lng=east", "lng"},
		{"dist=far", "dist"},
		{"max=ten", "max"},
		{"max=-2", "max"},
		{"lat=NaN&lng=8&dist=1", "lat"},
		{"lat=47&lng=Inf&dist=1", "lng"},
		{"lat=47&lng=8&dist=Infinity", "dist"},
		{"lat=47&lng=8&dist=nan", "dist"},
		{"lat=91&lng=8&dist=1", "lat"},
		{"lat=-90.5&lng=8&dist=1", "lat"},
		{"lat=47&lng=181&dist=1", "lng"},
		{"lat=47&lng=8&dist=-1", "dist"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v, _ := url.ParseQuery(tt.query)
			_, err := ParseParams(v)
			require.Error(t, err)

			var perr *ParamError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.param, perr.Param)
		})
	}
}

func TestHelpMessage(t *testing.T) {
	msg := HelpMessage(&ParamError{Param: "max", Value: "ten", Err: errors.New("not a number")})
	assert.Equal(t, "Error: invalid value \"ten\" for parameter max: not a number\nYour input is not valid! See /data/help for more information.", msg)
}
