package testdb

import (
	"os"
)

// Environment variables consulted for the integration database
const (
	// EnvTestDatabaseURL is the preferred variable for test runs
	EnvTestDatabaseURL = "QUERYTASK_TEST_DB_URL"

	// EnvDatabaseURL is the conventional fallback
	EnvDatabaseURL = "DATABASE_URL"
)

// CI environment detection variables
var ciVariables = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"CIRCLECI",
}

// IsCI returns true if the current environment is a CI environment.
func IsCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// DatabaseURL returns the PostgreSQL URL for integration tests, or "" when
// none is configured.
func DatabaseURL() string {
	if url := os.Getenv(EnvTestDatabaseURL); url != "" {
		return url
	}
	return os.Getenv(EnvDatabaseURL)
}
