package cache

import (
	"fmt"
	"strconv"
	"strings"

	"catalog-rest-api/internal/model"

	"github.com/cespare/xxhash/v2"
)

// ListKey derives the cache key for a filtered product listing. The key is a
// pure function of the normalized filter and the epoch: the same inputs always
// produce the same key, and the epoch prefix makes every key built before a
// mutation unreachable afterwards. The filter segment is rendered in a fixed
// field order with explicit markers for absent filters, then digested with
// xxhash so value-different filters collide only with hash probability.
func ListKey(f model.ProductFilter, epoch int64) string {
	f = f.Normalize()

	var b strings.Builder
	fmt.Fprintf(&b, "p=%d|s=%d|q=%s", f.Page, f.PageSize, f.Search)
	b.WriteString("|c=")
	if f.CategoryID != nil {
		b.WriteString(strconv.Itoa(*f.CategoryID))
	}
	b.WriteString("|min=")
	if f.MinPrice != nil {
		b.WriteString(strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	b.WriteString("|max=")
	if f.MaxPrice != nil {
		b.WriteString(strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	b.WriteString("|active=")
	if f.IsActive != nil {
		b.WriteString(strconv.FormatBool(*f.IsActive))
	}

	return fmt.Sprintf("products:v%d:%016x", epoch, xxhash.Sum64String(b.String()))
}

// EntityKey derives the cache key for a single-entity lookup, e.g.
// EntityKey("product", 42) -> "product:42". Entity keys are not epoch-scoped:
// their invalidation is always caused by an identifiable id-level mutation
// and handled by an explicit Remove.
func EntityKey(kind string, id int) string {
	return kind + ":" + strconv.Itoa(id)
}
