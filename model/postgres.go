package model

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// Postgres describes a managed Postgres instance as returned by the
// provider API.
type Postgres struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	DatabaseName  string         `json:"databaseName"`
	DatabaseUser  string         `json:"databaseUser"`
	Plan          string         `json:"plan"`
	Region        string         `json:"region"`
	Version       string         `json:"version"`
	Status        PostgresStatus `json:"status"`
	EnvironmentID string         `json:"environmentId"`
	OwnerID       string         `json:"ownerId"`
	CreatedAt     string         `json:"createdAt"`
	IsReplica     bool           `json:"isReplica,omitempty"`
}

// PostgresListEntry is the wrapper element of the list endpoint response.
type PostgresListEntry struct {
	Postgres *Postgres `json:"postgres"`
}

type PostgresStatus string

const (
	PostgresStatusCreating    PostgresStatus = "creating"
	PostgresStatusAvailable   PostgresStatus = "available"
	PostgresStatusUnavailable PostgresStatus = "unavailable"
	PostgresStatusSuspended   PostgresStatus = "suspended"
)

// CIDRBlockAndDescription is a single entry of a database's IP allow list.
type CIDRBlockAndDescription struct {
	CIDRBlock   string `json:"cidrBlock"`
	Description string `json:"description"`
}

// CreatePostgresRequest carries all provisioning parameters for a new
// database instance.
type CreatePostgresRequest struct {
	Name                   string                    `json:"name"`
	DatabaseName           string                    `json:"databaseName"`
	DatabaseUser           string                    `json:"databaseUser"`
	Plan                   string                    `json:"plan"`
	Region                 string                    `json:"region"`
	Version                string                    `json:"version"`
	EnvironmentID          string                    `json:"environmentId"`
	OwnerID                string                    `json:"ownerId"`
	EnableHighAvailability bool                      `json:"enableHighAvailability"`
	EnableDiskAutoscaling  bool                      `json:"enableDiskAutoscaling"`
	IPAllowList            []CIDRBlockAndDescription `json:"ipAllowList"`
}

// NewCreatePostgresRequestFromReader will create a CreatePostgresRequest
// from an io.Reader with JSON data.
func NewCreatePostgresRequestFromReader(reader io.Reader) (*CreatePostgresRequest, error) {
	var createRequest CreatePostgresRequest
	err := json.NewDecoder(reader).Decode(&createRequest)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode create postgres request")
	}

	return &createRequest, nil
}

// NewPostgresFromReader will create a Postgres from an io.Reader with JSON data.
func NewPostgresFromReader(reader io.Reader) (*Postgres, error) {
	var postgres Postgres
	err := json.NewDecoder(reader).Decode(&postgres)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode postgres")
	}

	return &postgres, nil
}

// NewPostgresListFromReader will create a list of PostgresListEntry from an
// io.Reader with JSON data.
func NewPostgresListFromReader(reader io.Reader) ([]*PostgresListEntry, error) {
	entries := []*PostgresListEntry{}
	err := json.NewDecoder(reader).Decode(&entries)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode postgres list")
	}

	return entries, nil
}

// ListPostgresRequest describes the parameters to request a list of
// postgres instances.
type ListPostgresRequest struct {
	IncludeReplicas bool
	Limit           int
}

// ApplyToURL modifies the given url to include query string parameters for the request.
func (request *ListPostgresRequest) ApplyToURL(u *url.URL) {
	q := u.Query()
	q.Add("includeReplicas", strconv.FormatBool(request.IncludeReplicas))
	q.Add("limit", strconv.Itoa(request.Limit))

	u.RawQuery = q.Encode()
}
