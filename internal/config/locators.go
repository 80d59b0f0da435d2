package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"lanews-extractor/internal/browser"
	"lanews-extractor/internal/scraper"
)

// LoadLocators загружает локаторы из YAML поверх встроенных.
// Пустой путь: только встроенные локаторы.
func LoadLocators(filePath string) (*scraper.Locators, error) {
	locators := scraper.DefaultLocators()
	if filePath == "" {
		return locators, nil
	}

	// Проверяем существование файла
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("locators file not found: %s: %w", filePath, err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read locators file: %w", err)
	}

	if err := yaml.Unmarshal(data, locators); err != nil {
		return nil, fmt.Errorf("failed to parse locators YAML: %w", err)
	}

	if err := validateLocators(locators); err != nil {
		return nil, err
	}

	return locators, nil
}

// Locators загружает локаторы сайта; относительный путь считается от configs/
func (c *Config) Locators() (*scraper.Locators, error) {
	filePath := c.Site.LocatorsFile
	if filePath != "" && !filepath.IsAbs(filePath) {
		filePath = filepath.Join("configs", filePath)
	}
	return LoadLocators(filePath)
}

// validateLocators проверяет минимальный набор локаторов
func validateLocators(l *scraper.Locators) error {
	required := []struct {
		name string
		loc  browser.Locator
	}{
		{"search_field", l.SearchField},
		{"articles", l.Articles},
		{"title", l.Title},
		{"description", l.Description},
		{"date", l.Date},
		{"image", l.Image},
		{"next_page", l.NextPage},
	}
	for _, r := range required {
		if r.loc.IsZero() {
			return fmt.Errorf("%s locator is required", r.name)
		}
	}
	return nil
}
