package repository

import "fmt"

// New constructs the Repository selected by dbType, mirroring
// original_source/src/services/cronjobs.rs's DB_TYPE dispatch. Only
// "sqlite" is implemented; see DESIGN.md for why the mssql/firebird
// variants are not.
func New(dbType string, cfg SQLiteConfig) (Repository, error) {
	switch dbType {
	case "sqlite", "":
		return OpenSQLite(cfg)
	default:
		return nil, fmt.Errorf("repository: unsupported DB_TYPE %q", dbType)
	}
}
