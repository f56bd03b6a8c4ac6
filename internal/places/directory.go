package places

import (
	"context"
	"fmt"

	"github.com/parkops/shiftbot/internal/storage"
)

// Directory is the read-only location lookup built once at startup.
// Dialog keyboards list Titles; finalizers resolve the chosen title to
// the place row carrying the destination chat id.
type Directory struct {
	byTitle map[string]storage.Place
	ordered []string
}

// NewDirectory builds a directory from place rows, keeping their order.
func NewDirectory(rows []storage.Place) *Directory {
	d := &Directory{byTitle: make(map[string]storage.Place, len(rows))}
	for _, p := range rows {
		if _, dup := d.byTitle[p.Title]; dup {
			continue
		}
		d.byTitle[p.Title] = p
		d.ordered = append(d.ordered, p.Title)
	}
	return d
}

// Load reads the places table and builds the directory.
func Load(ctx context.Context, repo *storage.Repo) (*Directory, error) {
	rows, err := repo.Places(ctx)
	if err != nil {
		return nil, fmt.Errorf("places: load: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("places: places table is empty")
	}
	return NewDirectory(rows), nil
}

// Resolve maps a place title to its row.
func (d *Directory) Resolve(title string) (storage.Place, bool) {
	p, ok := d.byTitle[title]
	return p, ok
}

// Titles returns place titles in table order for keyboard building.
func (d *Directory) Titles() []string {
	return append([]string(nil), d.ordered...)
}
