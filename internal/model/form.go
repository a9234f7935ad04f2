package model

// ListingForm is the data captured by the listing creation form
type ListingForm struct {
	Title               string      `json:"title"`
	ShortDescription    string      `json:"shortDescription"`
	DetailedDescription string      `json:"detailedDescription"`
	ListingType         ListingType `json:"listingType"`
	Category            Category    `json:"category"`
	Price               string      `json:"price"`
	Condition           Condition   `json:"condition,omitempty"`
	Location            string      `json:"location"`
	IsRemote            bool        `json:"isRemote"`
	ContactInfo         string      `json:"contactInfo"`
	Tags                string      `json:"tags"` // comma separated
}

// ListingPatch is a partial listing form. Nil fields are left unchanged.
type ListingPatch struct {
	Title               *string      `json:"title,omitempty"`
	ShortDescription    *string      `json:"shortDescription,omitempty"`
	DetailedDescription *string      `json:"detailedDescription,omitempty"`
	ListingType         *ListingType `json:"listingType,omitempty"`
	Category            *Category    `json:"category,omitempty"`
	Price               *string      `json:"price,omitempty"`
	Condition           *Condition   `json:"condition,omitempty"`
	Location            *string      `json:"location,omitempty"`
	IsRemote            *bool        `json:"isRemote,omitempty"`
	ContactInfo         *string      `json:"contactInfo,omitempty"`
	Tags                *string      `json:"tags,omitempty"`
}

// Apply merges the patch into a listing, re-deriving tags when provided
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.ShortDescription != nil {
		l.ShortDescription = *p.ShortDescription
	}
	if p.DetailedDescription != nil {
		l.DetailedDescription = *p.DetailedDescription
	}
	if p.ListingType != nil {
		l.ListingType = *p.ListingType
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Condition != nil {
		l.Condition = *p.Condition
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.IsRemote != nil {
		l.IsRemote = *p.IsRemote
	}
	if p.ContactInfo != nil {
		l.ContactInfo = *p.ContactInfo
	}
	if p.Tags != nil {
		l.Tags = ParseTags(*p.Tags)
	}
	if l.ListingType.IsService() {
		l.Condition = ""
	}
}

// FormFromListing reconstructs the form that would produce a listing
func FormFromListing(l *Listing) ListingForm {
	tags := ""
	for i, t := range l.Tags {
		if i > 0 {
			tags += ", "
		}
		tags += t
	}
	return ListingForm{
		Title:               l.Title,
		ShortDescription:    l.ShortDescription,
		DetailedDescription: l.DetailedDescription,
		ListingType:         l.ListingType,
		Category:            l.Category,
		Price:               l.Price,
		Condition:           l.Condition,
		Location:            l.Location,
		IsRemote:            l.IsRemote,
		ContactInfo:         l.ContactInfo,
		Tags:                tags,
	}
}
