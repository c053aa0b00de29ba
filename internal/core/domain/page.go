package domain

// PageSize is the number of properties fetched per listing page.
const PageSize = 9

// PropertyRange is one slice of the properties table plus the exact total.
type PropertyRange struct {
	Properties []Property
	TotalCount int64
}

// PropertyPage is the result of fetching one listing page.
type PropertyPage struct {
	Properties   []Property
	TotalCount   int64
	CurrentPage  int
	ItemsPerPage int
}

// TotalPages is ceil(TotalCount / ItemsPerPage).
func (p PropertyPage) TotalPages() int {
	return TotalPages(p.TotalCount, p.ItemsPerPage)
}

// TotalPages is ceil(count / size); 0 when there is nothing to show.
func TotalPages(count int64, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return int((count + int64(size) - 1) / int64(size))
}

// PageBounds returns the inclusive row range of a 1-based page.
// Pages below 1 are treated as page 1.
func PageBounds(page, size int) (from, to int) {
	if page < 1 {
		page = 1
	}
	from = (page - 1) * size
	to = from + size - 1
	return from, to
}

// ListingState is what the listing view renders: the last successful page
// plus loading and error flags.
type ListingState struct {
	Properties []Property
	Page       int
	TotalPages int
	TotalCount int64
	Loading    bool
	Error      string
}

// NewListingState is the state before the first fetch.
func NewListingState() *ListingState {
	return &ListingState{
		Properties: []Property{},
		Page:       1,
		TotalPages: 1,
	}
}

// Begin marks a fetch of page as in flight.
func (s *ListingState) Begin(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
	s.Loading = true
}

// Succeed replaces the items with the fetched page and clears the error.
func (s *ListingState) Succeed(result *PropertyPage) {
	s.Properties = result.Properties
	s.Page = result.CurrentPage
	s.TotalCount = result.TotalCount
	s.TotalPages = result.TotalPages()
	s.Loading = false
	s.Error = ""
}

// Fail keeps the previous items and records msg.
func (s *ListingState) Fail(msg string) {
	s.Loading = false
	s.Error = msg
}

// HasPrev is false on the first page.
func (s *ListingState) HasPrev() bool {
	return s.Page > 1
}

// HasNext is false once the last page is reached.
func (s *ListingState) HasNext() bool {
	return s.Page < s.TotalPages
}

// PrevPage is the page "Previous" leads to; it never goes below 1.
func (s *ListingState) PrevPage() int {
	if s.HasPrev() {
		return s.Page - 1
	}
	return s.Page
}

// NextPage is the page "Next" leads to; it never exceeds TotalPages.
func (s *ListingState) NextPage() int {
	if s.HasNext() {
		return s.Page + 1
	}
	return s.Page
}
