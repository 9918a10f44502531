package database

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/colonize/internal/database/memory"
	"github.com/Lumos-Labs-HQ/colonize/internal/database/mongodb"
	"github.com/Lumos-Labs-HQ/colonize/internal/database/sqlstore"
)

// Providers lists the supported store providers.
var Providers = []string{"mongodb", "mongo", "postgresql", "postgres", "mysql", "sqlite", "sqlite3", "memory"}

func NewAdapter(provider string) (Adapter, error) {
	switch provider {
	case "mongodb", "mongo":
		return mongodb.New(), nil
	case "postgresql", "postgres":
		return sqlstore.New(sqlstore.Postgres), nil
	case "mysql":
		return sqlstore.New(sqlstore.MySQL), nil
	case "sqlite", "sqlite3":
		return sqlstore.New(sqlstore.SQLite), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store provider: %s. Supported providers: %v", provider, Providers)
	}
}

// ProviderFromURL infers the provider from the URL scheme.
func ProviderFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return "mongodb"
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgresql"
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return "sqlite"
	case strings.HasPrefix(url, "memory://"):
		return "memory"
	default:
		return ""
	}
}
