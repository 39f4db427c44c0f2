package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	PostgREST DatabaseType = "postgrest"
	SQLite    DatabaseType = "sqlite"
)

type Config struct {
	SessionSecret string
	JwtKey        []byte
	DatabaseType  DatabaseType
	// Remote store config
	SupabaseURL string
	SupabaseKey string
	// SQLite config
	SQLitePath   string
	DatabaseName string
	// HTTP
	ListenAddr string
}

// LoadConfig reads the .env file and environment. A missing required key
// is fatal at startup, never a per-request error.
func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set in .env file")
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is not set in .env file")
	}

	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		databaseName = "lh3"
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":3008"
	}

	// Determine database type
	dbType := os.Getenv("DATABASE_TYPE")
	if dbType == "" {
		dbType = string(PostgREST) // Default to the hosted store
	}

	config := &Config{
		SessionSecret: sessionSecret,
		JwtKey:        []byte(jwtSecret),
		DatabaseType:  DatabaseType(dbType),
		DatabaseName:  databaseName,
		ListenAddr:    listenAddr,
	}

	// Configure based on database type
	if config.DatabaseType == PostgREST {
		supabaseURL := os.Getenv("SUPABASE_URL")
		if supabaseURL == "" {
			return nil, fmt.Errorf("SUPABASE_URL is not set in .env file")
		}
		supabaseKey := os.Getenv("SUPABASE_KEY")
		if supabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_KEY is not set in .env file")
		}
		config.SupabaseURL = supabaseURL
		config.SupabaseKey = supabaseKey
	} else if config.DatabaseType == SQLite {
		sqlitePath := os.Getenv("SQLITE_PATH")
		if sqlitePath == "" {
			// Default to a data directory in the current directory
			sqlitePath = filepath.Join("data", fmt.Sprintf("%s.db", databaseName))
		}
		config.SQLitePath = sqlitePath
	} else {
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", dbType)
	}

	return config, nil
}
