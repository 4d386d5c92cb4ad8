/*
Package config provides layered configuration loading for the recommender
service: struct defaults, an optional YAML file, then environment variable
overrides, unmarshaled into a single immutable Config value.

# Environment Variables

	DB_TYPE                    repository backend selector (default: sqlite)
	DB_DSN                     data source name (default: ./data/catalog.db)
	TABLE_INVENTORY_MOVEMENTS  transactions table (default: inventory_movements)
	TABLE_CLIENTS              clients table (default: clients)
	TABLE_PRODUCTS             products table (default: products)
	EXCLUDED_CLIENTS           comma-separated client ids excluded from
	                           training and listings
	ARTIFACT_PATH              model artifact file (default: ./data/hyperparameters.json)
	SCHEDULER_TIMEZONE         IANA timezone for the daily retrain (default: America/Mexico_City)
	HTTP_ADDR                  listen address (default: :8080)
	LOG_LEVEL                  zerolog level (default: info)
	LOG_FORMAT                 console or json (default: console)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

# Thread Safety

Config is immutable after Load() returns.
*/
package config
