package database

import (
	"errors"
	"fmt"
	"net/url"
)

// CloudSQL describes a Cloud SQL instance reached through the Unix socket
// Cloud Run mounts at /cloudsql/<instance>.
type CloudSQL struct {
	Instance string
	User     string
	Password string
	Name     string
}

// BuildURL returns rawURL when set, otherwise a socket DSN for cs. Both
// empty yields "" and disables the database.
func BuildURL(rawURL string, cs CloudSQL) (string, error) {
	if rawURL != "" {
		return rawURL, nil
	}
	if cs.Instance == "" {
		return "", nil
	}
	if cs.User == "" || cs.Name == "" {
		return "", errors.New("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	socket := fmt.Sprintf("/cloudsql/%s", cs.Instance)
	if cs.Password == "" {
		// IAM authentication
		return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", socket, cs.User, cs.Name), nil
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable", socket, cs.User, cs.Password, cs.Name), nil
}

// Redact masks the password of a postgres:// URL for logging. Key/value
// DSNs are reduced to their host.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "[redacted dsn]"
	}
	return u.Redacted()
}
