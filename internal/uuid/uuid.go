// Package uuid issues and canonicalises the identifiers used as primary keys.
package uuid

import googleuuid "github.com/google/uuid"

// New returns a UUIDv7. Later IDs sort after earlier ones, so inserts append
// to the primary key index.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Canonical parses s and returns it in lower-case hyphenated form.
func Canonical(s string) (string, error) {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
