package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Ledger listings (purchases, sales, returns, transfers, adjustments) and the
// catalog lists all page through these bounds. MaxLimit caps a single page;
// exports bypass pagination entirely via the ListAll repository paths.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a sanitized page/limit pair. Repositories derive their own SQL
// offset from it.
type Params struct {
	Page  int
	Limit int
}

// Parse reads page/limit query parameters, falling back to defaults and
// clamping the limit. Malformed values degrade to the defaults rather than
// failing the request.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}
