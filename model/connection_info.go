package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ConnectionInfo is the credentials bundle of a database instance. It is
// fetched fresh on every run and never cached.
type ConnectionInfo struct {
	Password                 string `json:"password"`
	InternalConnectionString string `json:"internalConnectionString"`
	ExternalConnectionString string `json:"externalConnectionString"`
	PSQLCommand              string `json:"psqlCommand"`
}

// NewConnectionInfoFromReader will create a ConnectionInfo from an
// io.Reader with JSON data.
func NewConnectionInfoFromReader(reader io.Reader) (*ConnectionInfo, error) {
	var connectionInfo ConnectionInfo
	err := json.NewDecoder(reader).Decode(&connectionInfo)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode connection info")
	}

	return &connectionInfo, nil
}
