package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"product-scraper/internal/config"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalizer приводит текст узла из статического HTML к тому виду,
// в котором его показывает браузер
type Normalizer struct {
	stripSelectors string
	trimNBSP       bool
	collapseSpaces bool
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		stripSelectors: strings.Join(cfg.Normalize.StripSelectors, ", "),
		trimNBSP:       cfg.Normalize.TrimNBSP,
		collapseSpaces: cfg.Normalize.CollapseSpaces,
	}
}

// Text возвращает видимый текст выборки. Исходный документ не изменяется.
func (n *Normalizer) Text(sel *goquery.Selection) string {
	node := sel.Clone()

	// script/style никогда не видны пользователю
	node.Find("script, style, noscript, template").Remove()
	if n.stripSelectors != "" {
		node.Find(n.stripSelectors).Remove()
	}

	return n.Clean(node.Text())
}

// Clean применяет правила нормализации к уже извлечённому тексту
func (n *Normalizer) Clean(text string) string {
	if n.trimNBSP {
		// Заменяем NBSP (\u00A0) на обычный пробел
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	if n.collapseSpaces {
		text = spaceRe.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}
