package render

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound - внутри контейнера нет элемента по селектору
	ErrNotFound = errors.New("element not found")

	// ErrWaitTimeout - за отведённое время на странице не появился ни один элемент
	ErrWaitTimeout = errors.New("wait for selector timed out")
)

// Element - отрендеренный узел страницы (контейнер товара или его поле)
type Element interface {
	// Find возвращает первого потомка по селектору или ErrNotFound
	Find(selector string) (Element, error)

	// Text возвращает отображаемый текст элемента
	Text() (string, error)

	// Attribute возвращает значение атрибута и признак его наличия
	Attribute(name string) (string, bool, error)
}

// Session - одна сессия рендеринга (вкладка браузера или HTTP-клиент с текущим документом).
// Сессия не потокобезопасна и принадлежит одному скрейпу.
type Session interface {
	// Navigate загружает страницу. Ошибка означает, что страница недоступна.
	Navigate(ctx context.Context, url string) error

	// WaitForSelector ждёт появления хотя бы одного элемента и возвращает все
	// совпадения в порядке документа. По истечении timeout - ErrWaitTimeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)

	Close() error
}

// Opener создаёт новую сессию; вызывающий обязан закрыть её через Close
type Opener func(ctx context.Context) (Session, error)
