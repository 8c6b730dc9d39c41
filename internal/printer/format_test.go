package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/inferctl/internal/printer"
)

func TestFormatBytes(t *testing.T) {
	tests := map[string]struct {
		bytes int64
		exp   string
	}{
		"Negative sizes should be zero.":          {bytes: -1, exp: "0 B"},
		"Small sizes should be in bytes.":         {bytes: 512, exp: "512 B"},
		"Kibibytes should have one decimal.":      {bytes: 1536, exp: "1.5 KiB"},
		"The upload limit should be exact.":       {bytes: 100 << 20, exp: "100.0 MiB"},
		"Model sizes should be in gibibytes.":     {bytes: 16 << 30, exp: "16.0 GiB"},
		"Huge sizes should stop at tebibytes.":    {bytes: 2048 << 40, exp: "2048.0 TiB"},
		"Sizes under a unit should not round up.": {bytes: 1023, exp: "1023 B"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatBytes(test.bytes))
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		t   time.Time
		exp string
	}{
		"Unknown times should be a dash.":     {t: time.Time{}, exp: "-"},
		"Future times should be zero.":        {t: now.Add(time.Minute), exp: "0s"},
		"Recent times should be in seconds.":  {t: now.Add(-45 * time.Second), exp: "45s"},
		"Minutes should be truncated.":        {t: now.Add(-12*time.Minute - 50*time.Second), exp: "12m"},
		"Hours should be truncated.":          {t: now.Add(-3*time.Hour - 59*time.Minute), exp: "3h"},
		"Old times should be in days.":        {t: now.Add(-50 * time.Hour), exp: "2d"},
		"Other time zones should be handled.": {t: now.In(time.FixedZone("CET", 3600)).Add(-5 * time.Minute), exp: "5m"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatAge(test.t, now))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 10, 13, 4, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2026-03-10 12:04:05 UTC", printer.FormatTimestamp(ts))
}
