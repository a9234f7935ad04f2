package model

// SortOrder controls listing search ordering
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// ListingFilter narrows a listing search. Zero values match everything.
type ListingFilter struct {
	Query       string
	ListingType ListingType
	Category    Category
	Status      ListingStatus
	SellerID    UserID
	Tag         string
	RemoteOnly  bool
	MinPrice    *float64
	MaxPrice    *float64
	Sort        SortOrder
}
