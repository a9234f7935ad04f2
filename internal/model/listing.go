package model

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ListingID uniquely identifies a listing
type ListingID string

// ListingType says what the seller wants to do with the listing
type ListingType string

const (
	ListingTypeSell           ListingType = "sell"
	ListingTypeBuy            ListingType = "buy"
	ListingTypeTrade          ListingType = "trade"
	ListingTypeOfferService   ListingType = "offer-service"
	ListingTypeRequestService ListingType = "request-service"
)

// ValidListingTypes returns every listing type
func ValidListingTypes() []ListingType {
	return []ListingType{
		ListingTypeSell, ListingTypeBuy, ListingTypeTrade,
		ListingTypeOfferService, ListingTypeRequestService,
	}
}

// IsValid reports whether t is a known listing type
func (t ListingType) IsValid() bool {
	for _, v := range ValidListingTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// IsService reports whether the listing is about a service rather than an item
func (t ListingType) IsService() bool {
	return t == ListingTypeOfferService || t == ListingTypeRequestService
}

// Category groups listings for browsing
type Category string

// Item categories
const (
	CategoryVideoGame   Category = "video-game"
	CategoryConsole     Category = "console"
	CategoryPCHardware  Category = "pc-hardware"
	CategoryAccessory   Category = "accessory"
	CategoryCollectible Category = "collectible"
	CategoryOtherItem   Category = "other-item"
)

// Service categories
const (
	CategoryCoaching        Category = "coaching"
	CategoryTeammate        Category = "teammate"
	CategoryModdingRepair   Category = "modding-repair"
	CategoryContentCreation Category = "content-creation"
	CategoryTournament      Category = "tournament"
	CategoryOtherService    Category = "other-service"
)

// ItemCategories returns the categories for physical item listings
func ItemCategories() []Category {
	return []Category{
		CategoryVideoGame, CategoryConsole, CategoryPCHardware,
		CategoryAccessory, CategoryCollectible, CategoryOtherItem,
	}
}

// ServiceCategories returns the categories for service listings
func ServiceCategories() []Category {
	return []Category{
		CategoryCoaching, CategoryTeammate, CategoryModdingRepair,
		CategoryContentCreation, CategoryTournament, CategoryOtherService,
	}
}

// IsValid reports whether c is a known item or service category
func (c Category) IsValid() bool {
	return slices.Contains(ItemCategories(), c) || slices.Contains(ServiceCategories(), c)
}

// CategoriesFor returns the category set that applies to a listing type
func CategoriesFor(t ListingType) []Category {
	if t.IsService() {
		return ServiceCategories()
	}
	return ItemCategories()
}

// Condition describes the state of a physical item
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// ValidConditions returns every item condition
func ValidConditions() []Condition {
	return []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}
}

// ListingStatus is the lifecycle state of a listing
type ListingStatus string

const (
	StatusActive   ListingStatus = "active"
	StatusPending  ListingStatus = "pending"
	StatusSold     ListingStatus = "sold"
	StatusInactive ListingStatus = "inactive"
)

// ValidStatuses returns every listing status
func ValidStatuses() []ListingStatus {
	return []ListingStatus{StatusActive, StatusPending, StatusSold, StatusInactive}
}

// IsValid reports whether s is a known status
func (s ListingStatus) IsValid() bool {
	for _, v := range ValidStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Image is a stored image descriptor
type Image struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// Listing is a marketplace post
type Listing struct {
	ID                  ListingID     `json:"id"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	SellerID            UserID        `json:"sellerId"`
	SellerName          string        `json:"sellerName"`
	Title               string        `json:"title"`
	ShortDescription    string        `json:"shortDescription"`
	DetailedDescription string        `json:"detailedDescription"`
	ListingType         ListingType   `json:"listingType"`
	Category            Category      `json:"category"`
	Price               string        `json:"price"`
	Condition           Condition     `json:"condition,omitempty"`
	Location            string        `json:"location"`
	IsRemote            bool          `json:"isRemote"`
	ContactInfo         string        `json:"contactInfo"`
	Tags                []string      `json:"tags"`
	Images              []Image       `json:"images"`
	Status              ListingStatus `json:"status"`
}

// Clone returns a deep copy
func (l Listing) Clone() Listing {
	l.Tags = cloneStrings(l.Tags)
	if l.Images != nil {
		imgs := make([]Image, len(l.Images))
		copy(imgs, l.Images)
		l.Images = imgs
	}
	return l
}

// PrimaryImage returns the primary image, or nil if there are no images
func (l *Listing) PrimaryImage() *Image {
	for i := range l.Images {
		if l.Images[i].IsPrimary {
			return &l.Images[i]
		}
	}
	return nil
}

// NumericPrice parses the free-form price text
func (l *Listing) NumericPrice() (float64, bool) {
	return ParsePrice(l.Price)
}

// EnsurePrimaryImage repairs the primary flag so exactly one image is primary
// when images are present. The first flagged image wins; if none is flagged
// the first image is promoted. Returns true if anything changed.
func EnsurePrimaryImage(images []Image) bool {
	if len(images) == 0 {
		return false
	}
	changed := false
	found := false
	for i := range images {
		if images[i].IsPrimary {
			if found {
				images[i].IsPrimary = false
				changed = true
			}
			found = true
		}
	}
	if !found {
		images[0].IsPrimary = true
		changed = true
	}
	return changed
}

// ParseTags splits a comma separated tag string. Entries are trimmed, empty
// entries and exact duplicates are dropped, and order is preserved.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// ParsePrice extracts a number from free-form price text such as "10",
// "$24.99" or "1,200". Text without a usable number (e.g. "Negotiable")
// reports false.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r == ',' || r == '$' || r == '€' || r == '£' || r == ' ':
			return -1
		default:
			return 'x'
		}
	}, strings.TrimSpace(raw))
	if cleaned == "" || strings.ContainsRune(cleaned, 'x') {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
