package domain

import "time"

const (
	// UntitledFeed подставляется вместо названия ленты, если источник его не указал.
	UntitledFeed = "untitled"
	// UntitledItem подставляется вместо заголовка новости, если он пуст.
	UntitledItem = "untitled"
	// MissingLink используется для новостей без ссылки. Пустая ссылка допустима в выходном документе.
	MissingLink = ""
	// DefaultEnclosureType - MIME-тип вложения, если источник его не указал.
	DefaultEnclosureType = "image/jpeg"
)

// Source описывает одну настроенную RSS-ленту.
type Source struct {
	Name string
	URL  string
}

// Enclosure представляет медиа-вложение новости (url + mime-тип).
type Enclosure struct {
	URL  string
	Type string
}

// RawItem представляет новость в том виде, в каком её отдал парсер.
// Published хранит исходную строку даты, PublishedParsed - дату, если её удалось разобрать парсеру ленты.
type RawItem struct {
	Title           string
	Link            string
	Published       string
	PublishedParsed *time.Time
	Enclosure       *Enclosure
}

// Feed представляет разобранную ленту одного источника.
type Feed struct {
	Title string
	Items []RawItem
}

// Item представляет нормализованную новость агрегированной ленты.
// PublishedAt равен nil, если дату публикации определить не удалось.
type Item struct {
	Title       string
	Link        string
	PublishedAt *time.Time
	SourceTitle string
	Enclosure   *Enclosure
}

// HasPublishTime сообщает, известна ли дата публикации новости.
func (i Item) HasPublishTime() bool {
	return i.PublishedAt != nil
}

// SourceFailure фиксирует причину, по которой источник был пропущен в цикле агрегации.
type SourceFailure struct {
	Source Source
	Err    error
}

// Aggregation - результат одного цикла агрегации: упорядоченные новости и сбои источников.
type Aggregation struct {
	Items    []Item
	Failures []SourceFailure
}

// Document - сериализованная агрегированная лента, которую отдает HTTP-слой.
type Document struct {
	Body          []byte
	Valid         bool
	GeneratedAt   time.Time
	ItemCount     int
	Sources       int
	FailedSources int
}
