package main

import (
	"fmt"
	"os"

	"gathering/pkg/activity"
	"gathering/pkg/persistence"
	"gathering/pkg/storage"

	"gopkg.in/yaml.v3"
)

// config mirrors the service's component config.
//
//	storage:
//	  backend: postgres
//	  postgres_dsn: postgres://gathering@localhost/gathering
//	storage_key: gatheringData
//	activity:
//	  rabbitmq_address: localhost
//	  rabbitmq_port: 5672
type config struct {
	Storage    storage.Options      `yaml:"storage"`
	StorageKey string               `yaml:"storage_key"`
	Activity   activity.AMQPOptions `yaml:"activity"`
}

func defaultConfig() config {
	return config{
		Storage:    storage.Options{Backend: storage.BackendSQLite, SQLitePath: "gathering.db"},
		StorageKey: persistence.DefaultKey,
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if c.StorageKey == "" {
		c.StorageKey = persistence.DefaultKey
	}
	return c, nil
}
