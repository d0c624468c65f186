package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-scraper/internal/observability"
	"product-scraper/internal/render"
)

type fakeElement struct {
	text     string
	textErr  error
	attrs    map[string]string
	children map[string]*fakeElement
}

func (e *fakeElement) Find(selector string) (render.Element, error) {
	child, ok := e.children[selector]
	if !ok {
		return nil, render.ErrNotFound
	}
	return child, nil
}

func (e *fakeElement) Text() (string, error) {
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.text, nil
}

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

type fakeSession struct {
	container string
	pages     map[string][]*fakeElement
	navErrs   map[string]error
	// emptyUntil - сколько первых ожиданий для URL вернут таймаут
	emptyUntil map[string]int

	current string
	visited []string
	waits   map[string]int
}

func newFakeSession(container string) *fakeSession {
	return &fakeSession{
		container:  container,
		pages:      map[string][]*fakeElement{},
		navErrs:    map[string]error{},
		emptyUntil: map[string]int{},
		waits:      map[string]int{},
	}
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.visited = append(s.visited, url)
	if err := s.navErrs[url]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *fakeSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) ([]render.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.waits[s.current]++
	if s.waits[s.current] <= s.emptyUntil[s.current] {
		return nil, render.ErrWaitTimeout
	}
	if selector != s.container {
		return nil, render.ErrWaitTimeout
	}
	containers := s.pages[s.current]
	if len(containers) == 0 {
		return nil, render.ErrWaitTimeout
	}
	out := make([]render.Element, 0, len(containers))
	for _, c := range containers {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeSession) Close() error { return nil }

func product(title, price, rating string) *fakeElement {
	children := map[string]*fakeElement{}
	if title != "" {
		children["h2"] = &fakeElement{text: title}
	}
	if price != "" {
		children[".p"] = &fakeElement{text: price}
	}
	if rating != "" {
		children[".r"] = &fakeElement{text: rating}
	}
	return &fakeElement{children: children}
}

var testSelectors = SelectorSet{
	Container: "div.item",
	Title:     "h2",
	Price:     ".p",
	Rating:    ".r",
}

func newTestScraper(t *testing.T, session render.Session, opts Options) *Scraper {
	t.Helper()
	s, err := NewScraper(session, testSelectors, opts, observability.NewNopLogger())
	require.NoError(t, err)
	s.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return s
}

func TestExtractFieldMissingElement(t *testing.T) {
	container := product("Phone", "", "")

	assert.Equal(t, NotAvailable, ExtractField(container, ".p", FieldPrice))
	assert.Equal(t, NotAvailable, ExtractField(container, "###invalid", FieldTitle))
	assert.Equal(t, "Phone", ExtractField(container, "h2", FieldTitle))
}

func TestExtractFieldRatingPrefersLabel(t *testing.T) {
	container := &fakeElement{children: map[string]*fakeElement{
		".r": {text: "4.5", attrs: map[string]string{"aria-label": "4.5 out of 5 stars"}},
	}}

	assert.Equal(t, "4.5 out of 5 stars", ExtractField(container, ".r", FieldRating))
	// для остальных полей aria-label игнорируется
	assert.Equal(t, "4.5", ExtractField(container, ".r", FieldTitle))
}

func TestExtractFieldRatingEmptyLabelFallsBackToText(t *testing.T) {
	container := &fakeElement{children: map[string]*fakeElement{
		".r": {text: "3.9", attrs: map[string]string{"aria-label": ""}},
	}}

	assert.Equal(t, "3.9", ExtractField(container, ".r", FieldRating))
}

func TestExtractFieldLookupErrorYieldsSentinel(t *testing.T) {
	container := &fakeElement{children: map[string]*fakeElement{
		"h2": {textErr: errors.New("node detached")},
	}}

	assert.Equal(t, NotAvailable, ExtractField(container, "h2", FieldTitle))
}

func TestExtractFieldKeepsTextVerbatim(t *testing.T) {
	container := &fakeElement{children: map[string]*fakeElement{
		"h2": {text: "  Laptop 15\"  "},
		".p": {text: ""},
	}}

	assert.Equal(t, "  Laptop 15\"  ", ExtractField(container, "h2", FieldTitle))
	assert.Equal(t, "", ExtractField(container, ".p", FieldPrice))
}

func TestExtractRecordAlwaysPopulated(t *testing.T) {
	values := []string{"", "x"}
	for _, title := range values {
		for _, price := range values {
			for _, rating := range values {
				rec := ExtractRecord(product(title, price, rating), testSelectors)

				want := Record{Title: NotAvailable, Price: NotAvailable, Rating: NotAvailable}
				if title != "" {
					want.Title = title
				}
				if price != "" {
					want.Price = price
				}
				if rating != "" {
					want.Rating = rating
				}
				assert.Equal(t, want, rec)
			}
		}
	}
}

func TestExtractPageDocumentOrder(t *testing.T) {
	session := newFakeSession("div.item")
	session.pages["u"] = []*fakeElement{
		product("A", "1", "5"),
		product("B", "2", "4"),
		product("C", "3", "3"),
	}
	require.NoError(t, session.Navigate(context.Background(), "u"))

	page, err := ExtractPage(context.Background(), session, testSelectors, time.Second)
	require.NoError(t, err)
	require.False(t, page.Failed())
	require.Len(t, page.Records, 3)
	assert.Equal(t, "A", page.Records[0].Title)
	assert.Equal(t, "B", page.Records[1].Title)
	assert.Equal(t, "C", page.Records[2].Title)
}

func TestExtractPageNoContainers(t *testing.T) {
	session := newFakeSession("div.item")
	require.NoError(t, session.Navigate(context.Background(), "empty"))

	page, err := ExtractPage(context.Background(), session, testSelectors, time.Second)
	require.NoError(t, err)
	assert.True(t, page.Failed())
	assert.ErrorIs(t, page.Failure, ErrNoContainers)
	assert.Empty(t, page.Records)
}

func TestExtractPageCanceled(t *testing.T) {
	session := newFakeSession("div.item")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractPage(ctx, session, testSelectors, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrapeScenarioWithMissingFieldAndEmptyPage(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://shop.example/search?q=laptop"
	session.pages[base+"&page=1"] = []*fakeElement{
		product("Laptop A", "$999", "4.5"),
		product("Laptop B", "", "4.1"),
	}
	// страница 2 не содержит контейнеров

	s := newTestScraper(t, session, Options{})
	result, err := s.Scrape(context.Background(), base, 2)
	require.NoError(t, err)

	want := Dataset{
		{Title: "Laptop A", Price: "$999", Rating: "4.5"},
		{Title: "Laptop B", Price: NotAvailable, Rating: "4.1"},
	}
	assert.Empty(t, cmp.Diff(want, result.Dataset))
	assert.Equal(t, 2, result.Stats.TotalPages)
	assert.Equal(t, 1, result.Stats.EmptyPages)
	assert.Equal(t, 2, result.Stats.TotalRecords)
	require.Len(t, result.Pages, 2)
	assert.ErrorIs(t, result.Pages[1].Failure, ErrNoContainers)
}

func TestScrapeVisitsPagesInOrder(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://shop.example/search?q=tv"
	for i, title := range []string{"p1", "p2", "p3", "p4"} {
		session.pages[PageURL(base, i+1)] = []*fakeElement{
			product(title+"-a", "1", "1"),
			product(title+"-b", "2", "2"),
		}
	}

	s := newTestScraper(t, session, Options{})
	result, err := s.Scrape(context.Background(), base, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{
		base + "&page=1",
		base + "&page=2",
		base + "&page=3",
		base + "&page=4",
	}, session.visited)

	var titles []string
	for _, r := range result.Dataset {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"p1-a", "p1-b", "p2-a", "p2-b", "p3-a", "p3-b", "p4-a", "p4-b"}, titles)
}

func TestScrapeKeepsDuplicates(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://shop.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("Same", "1", "1")}
	session.pages[base+"&page=2"] = []*fakeElement{product("Same", "1", "1")}

	result, err := newTestScraper(t, session, Options{}).Scrape(context.Background(), base, 2)
	require.NoError(t, err)
	assert.Len(t, result.Dataset, 2)
	assert.Equal(t, result.Dataset[0], result.Dataset[1])
}

func TestScrapeNavigationFailureIsFatal(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://down.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("A", "1", "1")}
	session.navErrs[base+"&page=2"] = errors.New("dial tcp: no such host")

	result, err := newTestScraper(t, session, Options{}).Scrape(context.Background(), base, 3)
	require.Error(t, err)
	assert.Nil(t, result)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, 2, navErr.Page)
	assert.Equal(t, base+"&page=2", navErr.URL)
	// третья страница не запрашивалась
	assert.Len(t, session.visited, 2)
}

func TestNewScraperRejectsIncompleteSelectors(t *testing.T) {
	for _, sel := range []SelectorSet{
		{Title: "h2", Price: ".p", Rating: ".r"},
		{Container: "div", Price: ".p", Rating: ".r"},
		{Container: "div", Title: "h2", Rating: ".r"},
		{Container: "div", Title: "h2", Price: ".p"},
	} {
		_, err := NewScraper(newFakeSession("div"), sel, Options{}, nil)
		assert.ErrorIs(t, err, ErrInvalidSelectors)
	}
}

func TestScrapeRejectsInvalidTarget(t *testing.T) {
	session := newFakeSession("div.item")
	s := newTestScraper(t, session, Options{})

	_, err := s.Scrape(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = s.Scrape(context.Background(), "https://shop.example/s?q=a", 0)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	assert.Empty(t, session.visited)
}

func TestScrapeSettleDelayBetweenPages(t *testing.T) {
	session := newFakeSession("div.item")
	s := newTestScraper(t, session, Options{SettleDelay: 2 * time.Second})

	var pauses []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	_, err := s.Scrape(context.Background(), "https://shop.example/s?q=a", 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, pauses)
}

func TestScrapeStructuralRetries(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://slow.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("Late", "1", "1")}
	session.emptyUntil[base+"&page=1"] = 1

	result, err := newTestScraper(t, session, Options{StructuralRetries: 1}).Scrape(context.Background(), base, 1)
	require.NoError(t, err)
	assert.Len(t, result.Dataset, 1)
	assert.Equal(t, 1, result.Stats.Retries)
	assert.Equal(t, []string{base + "&page=1", base + "&page=1"}, session.visited)
}

func TestScrapeWithoutRetriesAcceptsEmptyPage(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://slow.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("Late", "1", "1")}
	session.emptyUntil[base+"&page=1"] = 1

	result, err := newTestScraper(t, session, Options{}).Scrape(context.Background(), base, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Dataset)
	assert.Equal(t, 1, result.Stats.EmptyPages)
}

func TestScrapeCanceledBetweenPages(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://shop.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("A", "1", "1")}

	ctx, cancel := context.WithCancel(context.Background())
	s := newTestScraper(t, session, Options{SettleDelay: time.Second})
	s.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	result, err := s.Scrape(ctx, base, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Len(t, session.visited, 1)
}

func TestScrapeIsIdempotent(t *testing.T) {
	session := newFakeSession("div.item")
	base := "https://shop.example/s?q=a"
	session.pages[base+"&page=1"] = []*fakeElement{product("A", "1", "5"), product("B", "", "4")}
	session.pages[base+"&page=2"] = []*fakeElement{product("C", "3", "")}

	s := newTestScraper(t, session, Options{})
	first, err := s.Scrape(context.Background(), base, 2)
	require.NoError(t, err)
	second, err := s.Scrape(context.Background(), base, 2)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Dataset, second.Dataset); diff != "" {
		t.Errorf("datasets differ between runs (-first +second):\n%s", diff)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base     string
		page     int
		expected string
	}{
		{"https://www.flipkart.com/search?q=laptop", 1, "https://www.flipkart.com/search?q=laptop&page=1"},
		{"https://www.flipkart.com/search?q=laptop", 12, "https://www.flipkart.com/search?q=laptop&page=12"},
		{"https://shop.example/catalog", 2, "https://shop.example/catalog?page=2"},
		{"https://shop.example/catalog?", 3, "https://shop.example/catalog?page=3"},
		{"https://shop.example/catalog?q=a&", 4, "https://shop.example/catalog?q=a&page=4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PageURL(tt.base, tt.page), "base %q page %d", tt.base, tt.page)
	}
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
