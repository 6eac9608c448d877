package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	apperrors "datalab/internal/errors"
)

var validate = validator.New()

// ExperimentConfig holds the parameters that reproduce a split
type ExperimentConfig struct {
	TestSize    float64 `json:"test_size" validate:"gt=0,lt=1"`
	RandomState int64   `json:"random_state"`
}

// Validate checks the split parameters
func (c ExperimentConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewInvalidArgumentError(fmt.Sprintf("invalid experiment config: %v", err))
	}
	return nil
}

// metadataRecord is the on-disk form; pointers tell absent fields from zero values
type metadataRecord struct {
	TestSize    *float64 `json:"test_size" validate:"required,gt=0,lt=1"`
	RandomState *int64   `json:"random_state" validate:"required"`
}

// EncodeMetadata renders cfg as an indented JSON document
func EncodeMetadata(cfg ExperimentConfig) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeMetadata parses a metadata document. It must hold exactly the
// test_size and random_state fields with test_size in (0, 1).
func DecodeMetadata(r io.Reader) (ExperimentConfig, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var rec metadataRecord
	if err := dec.Decode(&rec); err != nil {
		return ExperimentConfig{}, apperrors.NewParsingError("failed to decode metadata", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ExperimentConfig{}, apperrors.NewParsingError("unexpected data after metadata object", err)
	}
	if err := validate.Struct(rec); err != nil {
		return ExperimentConfig{}, apperrors.NewParsingError("invalid metadata", err)
	}

	return ExperimentConfig{TestSize: *rec.TestSize, RandomState: *rec.RandomState}, nil
}

// decodeMetadataBytes is DecodeMetadata over an in-memory document
func decodeMetadataBytes(data []byte) (ExperimentConfig, error) {
	return DecodeMetadata(bytes.NewReader(data))
}
