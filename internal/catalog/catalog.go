// Package catalog loads the book catalog from a JSONL file.
package catalog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// MaxLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxLineCapacity = 1024 * 1024

// Book is a single catalog record, keyed by its exact title.
type Book struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary_short"`
	Themes  []string `json:"themes,omitempty"`
}

// ParseError reports a malformed catalog line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Catalog is the in-memory set of all known books for a run.
// It is built once at startup and read-only afterwards.
type Catalog struct {
	books map[string]Book
	order []string // titles in first-seen order, for deterministic ingestion
}

// Load reads a JSONL catalog file into a Catalog.
//
// Each non-blank line must be a JSON object with non-empty "title" and
// "summary_short" fields; "themes" is optional and defaults to empty.
// A later line with an already-seen title overwrites the earlier record.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	cat := &Catalog{books: make(map[string]Book)}

	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var book Book
		if err := json.Unmarshal(line, &book); err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}
		if book.Title == "" {
			return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("missing required field %q", "title")}
		}
		if book.Summary == "" {
			return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("missing required field %q", "summary_short")}
		}
		if book.Themes == nil {
			book.Themes = []string{}
		}

		if _, seen := cat.books[book.Title]; !seen {
			cat.order = append(cat.order, book.Title)
		}
		cat.books[book.Title] = book
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	return cat, nil
}

// Get returns the book with the exact given title.
func (c *Catalog) Get(title string) (Book, bool) {
	book, ok := c.books[title]
	return book, ok
}

// Len returns the number of distinct titles in the catalog.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Titles returns all titles in first-seen order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.order))
	copy(titles, c.order)
	return titles
}

// Books returns all records in first-seen order.
func (c *Catalog) Books() []Book {
	books := make([]Book, 0, len(c.order))
	for _, title := range c.order {
		books = append(books, c.books[title])
	}
	return books
}
