package core

import (
	"fmt"
	"os"

	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/memory"
	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/postgres"
	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	BOXSHIP_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	BOXSHIP_SQLITE_PATH: path to sqlite file (default ./boxship.db)
//	BOXSHIP_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("BOXSHIP_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("BOXSHIP_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("BOXSHIP_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
