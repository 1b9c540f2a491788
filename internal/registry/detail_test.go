package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetailHTML(t *testing.T) {
	details, err := parseDetailHTML(detailPage101)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Project_Name":        "Teknaf Solar Park",
		"DC_Capacity":         "28 MWp",
		"AC_Capacity":         "20 MW",
		"Latitude__Longitude": "20.8579, 92.3079",
		"District":            "Cox's Bazar",
		"System_Owner":        "Joules Power Limited",
		"Grid_Status":         "On-Grid",
		"EPC":                 "Juli New Energy",
	}, details)
}

func TestParseDetailHTML_EmptyAndBlankRowsIgnored(t *testing.T) {
	html := `<html><body>
<table>
  <tr><td>Item Name</td><td>:</td><td>Value</td></tr>
  <tr><td>District</td><td>:</td><td></td></tr>
  <tr><td></td><td>:</td><td>orphan value</td></tr>
  <tr><td>No colon single cell</td></tr>
  <tr><td>Two: colons: here</td></tr>
  <tr><td>Division</td><td>:</td><td>Khulna</td></tr>
</table>
</body></html>`

	details, err := parseDetailHTML(html)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Division": "Khulna"}, details)
}

func TestCleanDetailKey(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"DC Capacity", "DC_Capacity"},
		{"Latitude, Longitude", "Latitude__Longitude"},
		{"Financing Primary Fund Allocator (PFA)", "Financing_Primary_Fund_Allocator__PFA_"},
		{"Grid_Status", "Grid_Status"},
		{"  District  ", "District"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanDetailKey(tt.label), "label %q", tt.label)
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{"plain pair", "23.8103, 90.4125", 23.8103, 90.4125, true},
		{"compass text", "22.4716 N, 89.5911 E", 22.4716, 89.5911, true},
		{"integers", "23, 90", 23, 90, true},
		{"negative", "-1.5, 90.25", -1.5, 90.25, true},
		{"single number", "23.8103", 0, 0, false},
		{"empty", "", 0, 0, false},
		{"no numbers", "not available", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, ok := ParseCoordinates(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantLat, lat, 0.0001)
				assert.InDelta(t, tt.wantLon, lon, 0.0001)
			}
		})
	}
}

func TestCoordinatesFromDetails(t *testing.T) {
	lat, lon, ok := CoordinatesFromDetails(map[string]string{
		"Latitude__Longitude": "23.81, 90.41",
		"District":            "Dhaka",
	})
	require.True(t, ok)
	assert.InDelta(t, 23.81, lat, 0.0001)
	assert.InDelta(t, 90.41, lon, 0.0001)

	// Label punctuation varies across project pages.
	_, _, ok = CoordinatesFromDetails(map[string]string{
		"Latitude___Longitude": "24.0, 91.0",
	})
	assert.True(t, ok)

	_, _, ok = CoordinatesFromDetails(map[string]string{"District": "Dhaka"})
	assert.False(t, ok)
}
