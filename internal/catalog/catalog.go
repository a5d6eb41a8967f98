// Package catalog holds the fixed list of books offered by the loan form.
package catalog

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Book struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

type file struct {
	Books []Book `yaml:"books"`
}

// Default is used when no catalog file is configured.
func Default() []Book {
	return Sort([]Book{
		{ID: "B1", Title: "Don Quijote de la Mancha"},
		{ID: "B2", Title: "Cien años de soledad"},
		{ID: "B3", Title: "La casa de los espíritus"},
		{ID: "B4", Title: "Ficciones"},
		{ID: "B5", Title: "Ñaque o de piojos y actores"},
		{ID: "B6", Title: "El túnel"},
		{ID: "B7", Title: "Rayuela"},
	})
}

// Load reads a YAML catalog (books: [{id, title}]).
func Load(path string) ([]Book, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("カタログの読み込み失敗: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("カタログのパース失敗: %w", err)
	}
	if err := Validate(f.Books); err != nil {
		return nil, err
	}
	return Sort(f.Books), nil
}

// Validate requires non-empty, unique ids and non-empty titles.
func Validate(books []Book) error {
	if len(books) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]struct{}, len(books))
	for i, b := range books {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return fmt.Errorf("books[%d]: id is required", i)
		}
		if strings.TrimSpace(b.Title) == "" {
			return fmt.Errorf("books[%d] (%s): title is required", i, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("books[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Sort returns a copy ordered by title using Spanish collation
// ("Ñaque" after "Nube", accents ignored at the primary level).
func Sort(books []Book) []Book {
	out := slices.Clone(books)
	c := collate.New(language.Spanish, collate.IgnoreCase)
	slices.SortStableFunc(out, func(a, b Book) int {
		return c.CompareString(a.Title, b.Title)
	})
	return out
}

// Find looks a book up by id.
func Find(books []Book, id string) (Book, bool) {
	for _, b := range books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}
