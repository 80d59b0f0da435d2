package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	envEnvironment  = "ENVIRONMENT"
	envWorkItemPath = "RPA_INPUT_WORKITEM_PATH"
)

// WorkItem: параметры одного запуска
type WorkItem struct {
	SearchPhrase string `yaml:"search_phrase" json:"search_phrase"`
	NoOfMonths   int    `yaml:"no_of_months" json:"no_of_months"`
}

func (w WorkItem) Validate() error {
	if w.SearchPhrase == "" {
		return fmt.Errorf("search_phrase is required")
	}
	if w.NoOfMonths < 0 {
		return fmt.Errorf("no_of_months must be >= 0")
	}
	return nil
}

type workItemEntry struct {
	Payload WorkItem `json:"payload"`
}

// LoadWorkItemFile читает файл входных work items (JSON-массив) и берёт payload первого
func LoadWorkItemFile(filePath string) (WorkItem, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return WorkItem{}, fmt.Errorf("failed to read work item file: %w", err)
	}

	var items []workItemEntry
	if err := json.Unmarshal(data, &items); err != nil {
		return WorkItem{}, fmt.Errorf("failed to parse work item file: %w", err)
	}
	if len(items) == 0 {
		return WorkItem{}, fmt.Errorf("work item file %s has no items", filePath)
	}

	return items[0].Payload, nil
}

// ResolveWorkItem: в PROD параметры берутся из work item, иначе из конфига
func (c *Config) ResolveWorkItem(getenv func(string) string) (WorkItem, error) {
	item := c.WorkItem

	if getenv(envEnvironment) == "PROD" {
		path := getenv(envWorkItemPath)
		if path == "" {
			return WorkItem{}, fmt.Errorf("%s is required when %s=PROD", envWorkItemPath, envEnvironment)
		}
		loaded, err := LoadWorkItemFile(path)
		if err != nil {
			return WorkItem{}, err
		}
		item = loaded
	}

	if err := item.Validate(); err != nil {
		return WorkItem{}, fmt.Errorf("invalid work item: %w", err)
	}
	return item, nil
}
