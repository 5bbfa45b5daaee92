package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// EnvVar is a single environment variable of a hosted service.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpdateEnvVarRequest carries the new value for a single service
// environment variable. The provider has no batch update; each key is a
// separate PUT.
type UpdateEnvVarRequest struct {
	Value string `json:"value"`
}

// NewUpdateEnvVarRequestFromReader will create an UpdateEnvVarRequest from
// an io.Reader with JSON data.
func NewUpdateEnvVarRequestFromReader(reader io.Reader) (*UpdateEnvVarRequest, error) {
	var updateRequest UpdateEnvVarRequest
	err := json.NewDecoder(reader).Decode(&updateRequest)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode update env var request")
	}

	return &updateRequest, nil
}

// NewEnvVarFromReader will create an EnvVar from an io.Reader with JSON data.
func NewEnvVarFromReader(reader io.Reader) (*EnvVar, error) {
	var envVar EnvVar
	err := json.NewDecoder(reader).Decode(&envVar)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode env var")
	}

	return &envVar, nil
}
