package pagination

// Page/limit pagination used by the catalog listing. The API reports the
// total row count and derived page count next to the requested window.

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the resulting window for response envelopes.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
	NumOfPages int   `json:"num_of_pages"`
}

// Normalize enforces the configured defaults and maximums.
func (p Params) Normalize() Params {
	out := p
	if out.Page <= 0 {
		out.Page = 1
	}
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	return out
}

// Offset returns the row offset for the normalized window.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewMeta builds the response metadata for a total row count.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	pages := int(total / int64(n.Limit))
	if total%int64(n.Limit) != 0 {
		pages++
	}
	return Meta{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalCount: total,
		NumOfPages: pages,
	}
}
