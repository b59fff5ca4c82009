package catalog

import (
	"strconv"
	"strings"
)

const productColumns = `id, name, description, price, stock_quantity, image_url, category_id, is_archived, created_at, updated_at`

// buildSearchQuery renders the storefront search as positional SQL.
// Only in-stock, non-archived products are ever returned.
func buildSearchQuery(f Filter) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 4)

	sb.WriteString("SELECT ")
	sb.WriteString(productColumns)
	sb.WriteString(" FROM products WHERE stock_quantity > 0 AND is_archived = FALSE")

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(" AND name ILIKE " + next("%"+escapeLike(q)+"%"))
	}
	if len(f.CategoryIDs) > 0 {
		sb.WriteString(" AND category_id = ANY(" + next(f.CategoryIDs) + "::bigint[])")
	}
	if f.MinPrice != nil {
		sb.WriteString(" AND price >= " + next(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		sb.WriteString(" AND price <= " + next(*f.MaxPrice))
	}

	switch f.Sort {
	case SortPriceAsc:
		sb.WriteString(" ORDER BY price ASC, id ASC")
	case SortPriceDesc:
		sb.WriteString(" ORDER BY price DESC, id ASC")
	default:
		sb.WriteString(" ORDER BY created_at DESC, id DESC")
	}

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
