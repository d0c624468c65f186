package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"product-scraper/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRecordHash генерирует SHA256 хеш записи
// Формула: SHA256(title|price|rating)
func (g *Generator) GenerateRecordHash(rec scraper.Record) string {
	content := fmt.Sprintf("%s|%s|%s", rec.Title, rec.Price, rec.Rating)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// GenerateDatasetHash - отпечаток всего датасета с учётом порядка записей.
// Два прогона по неизменному сайту дают одинаковый отпечаток.
func (g *Generator) GenerateDatasetHash(dataset scraper.Dataset) string {
	h := sha256.New()
	for _, rec := range dataset {
		// хеш записи фиксированной длины, разделитель не нужен
		h.Write([]byte(g.GenerateRecordHash(rec)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyDatasetHash проверяет соответствие хеша
func (g *Generator) VerifyDatasetHash(expectedHash string, dataset scraper.Dataset) bool {
	return g.GenerateDatasetHash(dataset) == expectedHash
}
