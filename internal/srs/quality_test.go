package srs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input   string
		want    Quality
		wantErr bool
	}{
		{input: "forgot", want: Forgot},
		{input: "HARD", want: Hard},
		{input: " easy ", want: Easy},
		{input: "0", want: Forgot},
		{input: "2", want: Hard},
		{input: "4", want: Easy},
		{input: "3", wantErr: true},
		{input: "good", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuality(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuality)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuality_String(t *testing.T) {
	assert.Equal(t, "forgot", Forgot.String())
	assert.Equal(t, "hard", Hard.String())
	assert.Equal(t, "easy", Easy.String())
	assert.Equal(t, "Quality(5)", Quality(5).String())
}

func TestQuality_YAML(t *testing.T) {
	type record struct {
		Quality Quality `yaml:"quality"`
	}

	out, err := yaml.Marshal(record{Quality: Hard})
	require.NoError(t, err)
	assert.Equal(t, "quality: hard\n", string(out))

	var got record
	require.NoError(t, yaml.Unmarshal([]byte("quality: easy\n"), &got))
	assert.Equal(t, Easy, got.Quality)

	_, err = yaml.Marshal(record{Quality: Quality(9)})
	assert.Error(t, err)
}
