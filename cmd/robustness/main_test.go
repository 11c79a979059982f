package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.report/internal/pipeline"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    pipeline.Variant
		wantErr bool
	}{
		{in: "dark=rob/dark.csv", want: pipeline.Variant{Label: "dark", Path: "rob/dark.csv"}},
		{in: "blur = rob/blur.csv ; conf=0.12 helps", want: pipeline.Variant{Label: "blur", Path: "rob/blur.csv", Note: "conf=0.12 helps"}},
		{in: "rob/x.csv", wantErr: true},
		{in: "=rob/x.csv", wantErr: true},
		{in: "low=", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVariant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantListFlag(t *testing.T) {
	var v variantList
	fs := flag.NewFlagSet("robustness", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&v, "variant", "")

	require.NoError(t, fs.Parse([]string{"-variant", "dark=a.csv", "-variant", "blur=b.csv;soft"}))
	require.Len(t, v, 2)
	assert.Equal(t, "dark,blur", v.String())
	assert.Equal(t, "soft", v[1].Note)

	assert.Error(t, fs.Parse([]string{"-variant", "nolabel"}))
}
