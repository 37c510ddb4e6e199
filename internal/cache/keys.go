package cache

import "strconv"

// Key helpers keep cache key construction in one place.

// QuoteKey is the cache key for a single stock quote.
func QuoteKey(symbol string) string {
	return "stock:" + symbol
}

// PageTokenKey is the cache key for the vendor continuation token that
// fetches the given external page. Tokens are only valid as the continuation
// from the page that produced them, so the key is the page the token fetches.
func PageTokenKey(page int) string {
	return "stocks:page:" + strconv.Itoa(page)
}

// CatalogKey marks a completed full-catalog walk; its value is the item
// count at the time of the walk.
const CatalogKey = "stocks:catalog"
