package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"product-scraper/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла
func LoadSelectors(filePath string) (*scraper.SelectorSet, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	// Проверяем существование файла
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	var selectors scraper.SelectorSet
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := selectors.Validate(); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// SelectorsPath возвращает путь к файлу селекторов.
// Относительный путь считается от каталога конфига.
func (c *Config) SelectorsPath() string {
	if c.SelectorsFile == "" || filepath.IsAbs(c.SelectorsFile) || c.baseDir == "" {
		return c.SelectorsFile
	}
	return filepath.Join(c.baseDir, c.SelectorsFile)
}

// LoadConfiguredSelectors загружает селекторы, указанные в selectors_file
func (c *Config) LoadConfiguredSelectors() (*scraper.SelectorSet, error) {
	return LoadSelectors(c.SelectorsPath())
}
