package dotenv

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DatabaseURLKey is the dotenv key holding the database connection string.
const DatabaseURLKey = "DATABASE_URL"

// Store is an explicit key/value view of a dotenv file. Values are read
// once on Load and written back on every Set; the ambient process
// environment is never mutated.
type Store struct {
	path   string
	values map[string]string
}

// Load reads the dotenv file at the given path, creating an empty store
// when the file does not exist yet.
func Load(path string) (*Store, error) {
	values := map[string]string{}

	_, err := os.Stat(path)
	if err == nil {
		values, err = godotenv.Read(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read dotenv file %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to stat dotenv file %s", path)
	}

	return &Store{path: path, values: values}, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value of the given key, or empty string when unset.
func (s *Store) Get(key string) string {
	return s.values[key]
}

// Set updates the key in the store and persists the whole store to the
// backing file.
func (s *Store) Set(key, value string) error {
	s.values[key] = value

	err := godotenv.Write(s.values, s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to write dotenv file %s", s.path)
	}

	return nil
}

// SetDatabaseURL stores the database connection string under DATABASE_URL.
func (s *Store) SetDatabaseURL(connectionString string) error {
	return s.Set(DatabaseURLKey, connectionString)
}
