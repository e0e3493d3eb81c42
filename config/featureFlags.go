package config

import (
	"os"
	"strings"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// PasswordHashingEnabled stores new credentials as bcrypt hashes.
// Existing plain-text rows keep working either way.
//
// Set via env:
// - PASSWORD_HASHING=true
func PasswordHashingEnabled() bool {
	return envBool("PASSWORD_HASHING")
}

// ImportCSVOnStartup seeds empty tables from DATA_DIR after migration.
//
// Set via env:
// - IMPORT_CSV_ON_STARTUP=true
func ImportCSVOnStartup() bool {
	return envBool("IMPORT_CSV_ON_STARTUP")
}

func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}

func RateLimitEnabled() bool {
	return envBool("RATE_LIMIT_ENABLED")
}

// CookieSecure marks the session cookie Secure. Always on in production.
func CookieSecure() bool {
	return envBool("COOKIE_SECURE") || IsProduction()
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// DataDir holds users.json, ChildEnrollment.csv and Adjustments.csv.
func DataDir() string {
	if v := strings.TrimSpace(os.Getenv("DATA_DIR")); v != "" {
		return v
	}
	return "data"
}

// ExportArchiveBucket is the GCS bucket exports are copied to. Empty disables archiving.
func ExportArchiveBucket() string {
	return strings.TrimSpace(os.Getenv("EXPORT_ARCHIVE_BUCKET"))
}
