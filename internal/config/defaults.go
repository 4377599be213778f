package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Search.Engine == "" {
		cfg.Search.Engine = EnginePostgres
	}
	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = 10
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "postgres"
	}
	if cfg.Postgres.Password == "" {
		cfg.Postgres.Password = "password"
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = "search_db"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.TextSearchConfig == "" {
		cfg.Postgres.TextSearchConfig = "english"
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = 10
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "./data/products.db"
	}
	if cfg.Bleve.Path == "" {
		cfg.Bleve.Path = "./data/products.bleve"
	}
	if cfg.Elastic.URL == "" {
		cfg.Elastic.URL = "http://localhost:9200"
	}
	if cfg.Elastic.Index == "" {
		cfg.Elastic.Index = "products"
	}
}
