package domain

import (
	"errors"
	"fmt"
)

// ErrNoSources возвращается, если в конфигурации не задано ни одного источника.
var ErrNoSources = errors.New("no feed sources configured")

// NetworkError описывает сбой загрузки источника: ошибка соединения, таймаут или неуспешный HTTP-статус.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status code: %d for url %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("failed to fetch url %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError описывает документ, который не является корректной лентой.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError описывает сбой сериализации агрегированной ленты.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to format feed: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
