package scraper

import (
	"context"
	"fmt"
	"time"

	"product-scraper/internal/render"
)

// ratingLabelAttr - рейтинг часто лежит только в aria-label, а не в тексте
const ratingLabelAttr = "aria-label"

// ExtractField возвращает значение поля внутри контейнера.
// Любой сбой поиска (нет элемента, битый селектор, ошибка бэкенда) даёт NotAvailable.
func ExtractField(container render.Element, selector string, field Field) string {
	value, err := lookupField(container, selector, field)
	if err != nil {
		return NotAvailable
	}
	return value
}

func lookupField(container render.Element, selector string, field Field) (string, error) {
	el, err := container.Find(selector)
	if err != nil {
		return "", fmt.Errorf("find %s by %q: %w", field, selector, err)
	}

	if field == FieldRating {
		label, ok, err := el.Attribute(ratingLabelAttr)
		if err == nil && ok && label != "" {
			return label, nil
		}
	}

	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read %s text: %w", field, err)
	}
	return text, nil
}

// ExtractRecord собирает запись из контейнера; поля извлекаются независимо
func ExtractRecord(container render.Element, selectors SelectorSet) Record {
	return Record{
		Title:  ExtractField(container, selectors.Title, FieldTitle),
		Price:  ExtractField(container, selectors.Price, FieldPrice),
		Rating: ExtractField(container, selectors.Rating, FieldRating),
	}
}

// ExtractPage ждёт контейнеры на уже загруженной странице и извлекает записи.
// Отсутствие контейнеров - не ошибка, а PageResult.Failure.
// Ошибку возвращает только отменённый контекст.
func ExtractPage(ctx context.Context, session render.Session, selectors SelectorSet, timeout time.Duration) (PageResult, error) {
	containers, err := session.WaitForSelector(ctx, selectors.Container, timeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return PageResult{}, ctxErr
		}
		return PageResult{
			Failure: fmt.Errorf("%w: selector %q: %v", ErrNoContainers, selectors.Container, err),
		}, nil
	}
	if len(containers) == 0 {
		return PageResult{
			Failure: fmt.Errorf("%w: selector %q matched nothing", ErrNoContainers, selectors.Container),
		}, nil
	}

	records := make([]Record, 0, len(containers))
	for _, container := range containers {
		records = append(records, ExtractRecord(container, selectors))
	}

	return PageResult{Records: records}, nil
}
