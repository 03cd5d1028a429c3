package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.February, 28)
	assert.Equal(t, "2026-03-01", d.AddDays(1).String())
	assert.Equal(t, "2026-02-27", d.AddDays(-1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.AddDays(365).AddDays(-365).Equal(d))
	assert.True(t, Date{}.IsZero())
	assert.Equal(t, "", Date{}.String())
}

func TestDateOf_UsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	late := time.Date(2026, time.October, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-10-10", DateOf(late).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-10")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.October, 10), d)

	for _, bad := range []string{"", "2026-13-01", "10/10/2026", "2026-10-10T00:00:00Z"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateScan(t *testing.T) {
	want := NewDate(2026, time.October, 10)
	for _, src := range []any{
		"2026-10-10",
		[]byte("2026-10-10"),
		"2026-10-10T00:00:00Z",
		time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC),
	} {
		var d Date
		require.NoError(t, d.Scan(src), "%T", src)
		assert.Equal(t, want, d)
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("yesterday"))

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-10", v)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Day  Date `json:"day"`
		Skip Date `json:"skip"`
	}
	b, err := json.Marshal(payload{Day: NewDate(2026, time.October, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-10-10","skip":null}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-10-11","skip":null}`), &p))
	assert.Equal(t, "2026-10-11", p.Day.String())
	assert.True(t, p.Skip.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"day":"11 Oct"}`), &p))
}
