package models

// ServiceProvider is the public profile of a provider account. Rating and
// ReviewCount are maintained by the review aggregator only.
type ServiceProvider struct {
	ID          int      `json:"id"`
	UserID      int      `json:"userId"`
	CompanyName string   `json:"companyName"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Experience  int      `json:"experience"`
	ContactInfo string   `json:"contactInfo"`
	CategoryID  int      `json:"categoryId"`
	Tags        []string `json:"tags"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
}

// ProviderFilter narrows provider listings. A zero CategoryID means no filter.
type ProviderFilter struct {
	CategoryID int
}
