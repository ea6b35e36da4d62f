package repository

// Page selects one page of a listing. Page is 1-based.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) limit(def int) int {
	if p.PerPage <= 0 || p.PerPage > 100 {
		return def
	}
	return p.PerPage
}

func (p Page) offset(def int) int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.limit(def)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Window returns the slice bounds of this page within n rows, for callers
// that page an in-memory list.
func (p Page) Window(def, n int) (int, int) {
	lo := p.offset(def)
	if lo > n {
		lo = n
	}
	hi := lo + p.limit(def)
	if hi > n {
		hi = n
	}
	return lo, hi
}
