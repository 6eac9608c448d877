package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "datalab/internal/errors"
)

func TestEncodeMetadata(t *testing.T) {
	data, err := EncodeMetadata(ExperimentConfig{TestSize: 0.2, RandomState: 42})
	require.NoError(t, err)

	assert.Equal(t, "{\n    \"test_size\": 0.2,\n    \"random_state\": 42\n}\n", string(data))
}

func TestDecodeMetadata(t *testing.T) {
	cfg, err := DecodeMetadata(strings.NewReader(`{"test_size": 0.25, "random_state": -3}`))
	require.NoError(t, err)
	assert.Equal(t, ExperimentConfig{TestSize: 0.25, RandomState: -3}, cfg)
}

func TestDecodeMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"not json", `test_size=0.2`},
		{"missing random_state", `{"test_size": 0.2}`},
		{"missing test_size", `{"random_state": 42}`},
		{"unknown field", `{"test_size": 0.2, "random_state": 42, "shuffle": true}`},
		{"string test_size", `{"test_size": "0.2", "random_state": 42}`},
		{"fractional seed", `{"test_size": 0.2, "random_state": 4.2}`},
		{"test_size out of range", `{"test_size": 1.2, "random_state": 42}`},
		{"null", `null`},
		{"trailing data", `{"test_size": 0.2, "random_state": 42} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMetadata(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing), "got %v", err)
		})
	}
}

func TestExperimentConfig_Validate(t *testing.T) {
	assert.NoError(t, ExperimentConfig{TestSize: 0.2, RandomState: 42}.Validate())

	for _, size := range []float64{0, 1, -0.1, 2} {
		err := ExperimentConfig{TestSize: size}.Validate()
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidArgument), "size=%v", size)
	}
}
