package paged

// Page layout shared by every huge structure. A page holds 1<<PageShift
// elements so that index decomposition is a shift and a mask.
const (
	PageShift = 14
	PageSize  = 1 << PageShift
	PageMask  = PageSize - 1

	// MaxArrayLength bounds conversion of a huge structure into one flat slice.
	MaxArrayLength = 1 << 28
)

// PageIndex returns the page holding the given element index.
func PageIndex(index int64) int {
	return int(index >> PageShift)
}

// IndexInPage returns the offset of the given element index within its page.
func IndexInPage(index int64) int {
	return int(index & PageMask)
}

// NumPages returns how many pages are needed to hold capacity elements.
func NumPages(capacity int64) int {
	return int((capacity + PageMask) >> PageShift)
}

// ExclusiveIndexOfPage returns the length of the trailing page for capacity.
func ExclusiveIndexOfPage(capacity int64) int {
	return int(1 + ((capacity - 1) & PageMask))
}

// CeilDiv returns the smallest integer q such that q*divisor >= dividend.
func CeilDiv(dividend, divisor int64) int64 {
	if dividend == 0 {
		return 0
	}
	return 1 + (dividend-1)/divisor
}
