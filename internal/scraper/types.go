package scraper

import "fmt"

// NotAvailable подставляется вместо поля, которое не удалось извлечь
const NotAvailable = "N/A"

// SelectorSet - CSS-селекторы контейнера товара и его полей.
// Заполняется один раз из пользовательского ввода и дальше не меняется.
type SelectorSet struct {
	Container string `yaml:"container"`
	Title     string `yaml:"title"`
	Price     string `yaml:"price"`
	Rating    string `yaml:"rating"`
}

// Validate проверяет, что все четыре селектора заданы
func (s SelectorSet) Validate() error {
	switch {
	case s.Container == "":
		return fmt.Errorf("%w: container selector is empty", ErrInvalidSelectors)
	case s.Title == "":
		return fmt.Errorf("%w: title selector is empty", ErrInvalidSelectors)
	case s.Price == "":
		return fmt.Errorf("%w: price selector is empty", ErrInvalidSelectors)
	case s.Rating == "":
		return fmt.Errorf("%w: rating selector is empty", ErrInvalidSelectors)
	}
	return nil
}

// Record - одна строка результата. Поле содержит либо текст, либо NotAvailable.
type Record struct {
	Title  string
	Price  string
	Rating string
}

// Dataset - записи в порядке страниц, внутри страницы в порядке контейнеров.
// Дубликаты не схлопываются.
type Dataset []Record

// PageResult - итог обработки одной страницы листинга
type PageResult struct {
	Page    int
	URL     string
	Records []Record
	// Failure != nil, если на странице не нашлось ни одного контейнера
	Failure error
}

func (r PageResult) Failed() bool {
	return r.Failure != nil
}

// Field - поле записи
type Field int

const (
	FieldTitle Field = iota
	FieldPrice
	FieldRating
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldPrice:
		return "price"
	case FieldRating:
		return "rating"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}
