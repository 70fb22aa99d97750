package tenant

import (
	"errors"
	"regexp"
)

// SchemaPrefix is prepended to a tenant identifier to form its schema name
const SchemaPrefix = "tenant_"

var (
	// ErrInvalidTenantIdentifier is returned for identifiers outside the
	// allowed character set or length bounds
	ErrInvalidTenantIdentifier = errors.New("invalid_tenant_identifier")
	// ErrTenantNotFound is returned when no active tenant matches a lookup
	ErrTenantNotFound = errors.New("tenant_not_found")
)

// Identifiers are 2-50 chars of lowercase alphanumerics, underscore and
// hyphen, starting with an alphanumeric. The identifier flows into a schema
// name, so nothing outside this set may ever pass.
var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,49}$`)

// ValidateIdentifier checks a candidate tenant identifier against the
// allowed pattern
func ValidateIdentifier(identifier string) error {
	if !identifierPattern.MatchString(identifier) {
		return ErrInvalidTenantIdentifier
	}
	return nil
}

// SchemaName derives the storage schema name for a tenant identifier.
// The mapping is a pure prefix over a validated restricted character set,
// so it is deterministic and no two identifiers collide.
func SchemaName(identifier string) (string, error) {
	if err := ValidateIdentifier(identifier); err != nil {
		return "", err
	}
	return SchemaPrefix + identifier, nil
}
