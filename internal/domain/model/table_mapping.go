package model

import (
	"errors"
	"strings"
)

// TableMapping routes every key starting with Prefix to TableName.
type TableMapping struct {
	Prefix    string `json:"prefix"     db:"prefix"`
	TableName string `json:"table_name" db:"table_name"`
}

// Normalize trims surrounding whitespace from the table name. The prefix is kept verbatim
// because object keys are matched byte for byte.
func (m *TableMapping) Normalize() {
	m.TableName = strings.TrimSpace(m.TableName)
}

// Validate checks the mapping can be stored.
func (m *TableMapping) Validate() error {
	if m.Prefix == "" {
		return errors.New("prefix is required")
	}
	if m.TableName == "" {
		return errors.New("table_name is required")
	}
	if _, err := SplitTableName(m.TableName); err != nil {
		return err
	}
	return nil
}

// LongestPrefixMatch returns the mapping with the longest Prefix that is a prefix of key.
// Equal-length candidates cannot both match the same key unless they are identical, so the
// result does not depend on the order of mappings.
func LongestPrefixMatch(mappings []TableMapping, key string) (TableMapping, bool) {
	var (
		best  TableMapping
		found bool
	)
	for _, m := range mappings {
		if m.Prefix == "" || !strings.HasPrefix(key, m.Prefix) {
			continue
		}
		if !found || len(m.Prefix) > len(best.Prefix) {
			best = m
			found = true
		}
	}
	return best, found
}

// ErrInvalidTableName is returned for table names that cannot be turned into an identifier.
var ErrInvalidTableName = errors.New("invalid table name")

// SplitTableName splits "schema.table" into its identifier parts. A bare name yields one part.
func SplitTableName(name string) ([]string, error) {
	if name == "" {
		return nil, ErrInvalidTableName
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, ErrInvalidTableName
	}
	for _, p := range parts {
		if p == "" || strings.ContainsRune(p, 0) {
			return nil, ErrInvalidTableName
		}
	}
	return parts, nil
}
