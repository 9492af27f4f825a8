// Package seed loads the demo marketplace: categories, providers, customers,
// reviews and a handful of event requests.
package seed

import (
	"context"
	"fmt"
	"time"

	"eventmarket/internal/fsm"
	"eventmarket/internal/models"
	"eventmarket/internal/services"
)

type Stores struct {
	Users      services.UserStore
	Categories services.CategoryStore
	Reviews    services.ReviewStore
	Requests   services.EventRequestStore
}

type category struct {
	name, description, image string
}

var categories = []category{
	{"Wedding Events", "From intimate ceremonies to grand celebrations, we provide comprehensive wedding planning services.", "https://images.unsplash.com/photo-1511795409834-ef04bbd61622?auto=format&fit=crop&w=800&q=80"},
	{"Birthday Celebrations", "Create unforgettable birthday experiences with our themed party planning and decoration services.", "https://images.unsplash.com/photo-1530103862676-de8c9debad1d?auto=format&fit=crop&w=800&q=80"},
	{"Corporate Events", "Professional planning for conferences, team-building activities, and corporate celebrations.", "https://images.unsplash.com/photo-1515187029135-18ee286d815b?auto=format&fit=crop&w=800&q=80"},
	{"Anniversary Events", "Celebrate your special milestones with romantic anniversary planning and coordination.", "https://images.unsplash.com/photo-1602631985686-1bb0e6a8696e?auto=format&fit=crop&w=800&q=80"},
	{"Farewell Parties", "Give a proper send-off with our farewell event planning and nostalgic themed decorations.", "https://images.unsplash.com/photo-1529333166437-7750a6dd5a70?auto=format&fit=crop&w=800&q=80"},
	{"Festival & Cultural Events", "Organize cultural celebrations and festivals with authentic themes and traditional elements.", "https://images.unsplash.com/photo-1504196606672-aef5c9cefc92?auto=format&fit=crop&w=800&q=80"},
}

type account struct {
	username, email, fullName, password string
	role                                models.Role

	// profile is set for providers; category indexes categories.
	profile  *models.ServiceProvider
	category int
}

func provider(company, description, location string, experience int, contact string, tags []string, image string) *models.ServiceProvider {
	return &models.ServiceProvider{
		CompanyName: company,
		Description: description,
		Location:    location,
		Experience:  experience,
		ContactInfo: contact,
		Tags:        tags,
		ImageURL:    &image,
	}
}

var accounts = []account{
	{"elegant_affairs", "contact@elegantaffairs.com", "Elegant Affairs", "password123", models.RoleProvider,
		provider("Elegant Affairs", "Creating magical wedding experiences with personalized themes and attention to every detail. Specialized in luxury weddings.",
			"New York, NY", 8, "contact@elegantaffairs.com | (555) 123-4567", []string{"Weddings", "Engagement", "Receptions"},
			"https://images.unsplash.com/photo-1519741497674-611481863552?auto=format&fit=crop&w=800&q=80"), 0},
	{"party_perfect", "info@partyperfect.com", "Party Perfect", "password123", models.RoleProvider,
		provider("Party Perfect", "Specializing in creative birthday celebrations for all ages with custom themes, entertainment, and memorable experiences.",
			"Los Angeles, CA", 5, "info@partyperfect.com | (555) 987-6543", []string{"Birthdays", "Kids Events", "Themed Parties"},
			"https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6a3?auto=format&fit=crop&w=800&q=80"), 1},
	{"summit_events", "contact@summitevents.com", "Summit Events", "password123", models.RoleProvider,
		provider("Summit Events", "Professional corporate event management with expertise in conferences, product launches, and executive retreats.",
			"Chicago, IL", 10, "contact@summitevents.com | (555) 456-7890", []string{"Conferences", "Team Building", "Corporate Galas"},
			"https://images.unsplash.com/photo-1517048676732-d65bc937f952?auto=format&fit=crop&w=800&q=80"), 2},
	{"celebration_experts", "info@celebrationexperts.com", "Celebration Experts", "password123", models.RoleProvider,
		provider("Celebration Experts", "Anniversary celebration specialists creating memorable moments for couples celebrating any milestone year.",
			"Boston, MA", 6, "info@celebrationexperts.com | (555) 234-5678", []string{"Anniversaries", "Romantic Events", "Milestone Celebrations"},
			"https://images.unsplash.com/photo-1511795409834-ef04bbd61622?auto=format&fit=crop&w=800&q=80"), 3},
	{"event_masters", "contact@eventmasters.com", "Event Masters", "password123", models.RoleProvider,
		provider("Event Masters", "Expert farewell party planners specializing in memorable send-offs for retiring employees or relocating friends.",
			"Seattle, WA", 7, "contact@eventmasters.com | (555) 876-5432", []string{"Farewells", "Retirement Parties", "Going Away Events"},
			"https://images.unsplash.com/photo-1529333166437-7750a6dd5a70?auto=format&fit=crop&w=800&q=80"), 4},
	{"festive_planners", "info@festiveplanners.com", "Festive Planners", "password123", models.RoleProvider,
		provider("Festive Planners", "Cultural event specialists creating authentic cultural experiences for various festivals and traditional celebrations.",
			"Miami, FL", 9, "info@festiveplanners.com | (555) 345-6789", []string{"Cultural Events", "Festivals", "Traditional Celebrations"},
			"https://images.unsplash.com/photo-1504196606672-aef5c9cefc92?auto=format&fit=crop&w=800&q=80"), 5},
	{"sarah_m", "sarah@example.com", "Sarah Johnson", "password123", models.RoleCustomer, nil, 0},
	{"james_t", "james@example.com", "James Thompson", "password123", models.RoleCustomer, nil, 0},
	{"lisa_p", "lisa@example.com", "Lisa Peterson", "password123", models.RoleCustomer, nil, 0},
	{"robert_j", "robert@example.com", "Robert Johnson", "password123", models.RoleCustomer, nil, 0},
	{"customer", "customer@example.com", "Test Customer", "password", models.RoleCustomer, nil, 0},
	{"provider", "provider@example.com", "Test Provider", "password", models.RoleProvider,
		provider("Test Provider Services", "This is a test provider account that you can use to try out provider features.",
			"Test City, CA", 5, "provider@example.com | (555) 123-4567", []string{"Testing", "Demo", "Examples"},
			"https://images.unsplash.com/photo-1511795409834-ef04bbd61622?auto=format&fit=crop&w=800&q=80"), 0},
}

// review indexes: provider into the created providers, customer into accounts.
type review struct {
	provider, customer, rating int
	comment                    string
}

var reviews = []review{
	{0, 6, 5, "Amazing wedding planning service! Everything was perfect."},
	{0, 7, 4, "Great attention to detail, would recommend."},
	{1, 8, 5, "The birthday party was a huge hit with all the kids!"},
	{1, 9, 5, "Incredibly creative themes and decorations."},
	{2, 6, 4, "Very professional corporate event management."},
	{2, 7, 4, "Our conference ran smoothly thanks to Summit Events."},
	{3, 8, 5, "Made our 10th anniversary truly special!"},
	{3, 9, 4, "Beautiful decorations and excellent service."},
	{4, 6, 4, "Great farewell party organization."},
	{4, 7, 4, "Creative and emotional farewell event."},
	{5, 8, 5, "Authentic cultural elements made the festival amazing!"},
	{5, 9, 4, "Excellent attention to traditional details."},
}

type request struct {
	customer, provider, category int
	title, description           string
	months, day                  int
	status                       string
}

var requests = []request{
	{6, 0, 0, "Summer Wedding", "Planning a summer wedding for 150 guests", 2, 15, fsm.StatusAccepted},
	{7, 2, 2, "Annual Corporate Retreat", "Team building event for 50 employees", 3, 10, fsm.StatusCompleted},
	{8, 1, 1, "Sweet 16 Birthday", "Planning a sweet 16 party with a Hollywood theme", 1, 22, fsm.StatusPending},
	{9, 3, 3, "25th Anniversary Celebration", "Silver anniversary dinner for 40 guests", 4, 5, fsm.StatusAccepted},
	{10, 6, 0, "Test Wedding Event", "This is a test event request for demo purposes", 1, 15, fsm.StatusPending},
}

// Load inserts the demo data unless the store already has users. It reports
// whether anything was written.
func Load(ctx context.Context, st Stores, hasher services.PasswordHasher) (bool, error) {
	return load(ctx, st, hasher, time.Now().UTC())
}

func load(ctx context.Context, st Stores, hasher services.PasswordHasher, now time.Time) (bool, error) {
	count, err := st.Users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	categoryIDs := make([]int, len(categories))
	for i, c := range categories {
		created, err := st.Categories.CreateCategory(ctx, models.Category{Name: c.name, Description: c.description, ImageURL: c.image})
		if err != nil {
			return false, fmt.Errorf("category %q: %w", c.name, err)
		}
		categoryIDs[i] = created.ID
	}

	hashes := map[string]string{}
	userIDs := make([]int, len(accounts))
	var providerIDs []int
	for i, a := range accounts {
		hash, ok := hashes[a.password]
		if !ok {
			if hash, err = hasher.Hash(a.password); err != nil {
				return false, err
			}
			hashes[a.password] = hash
		}

		var profile *models.ServiceProvider
		if a.profile != nil {
			p := *a.profile
			p.Tags = append([]string(nil), a.profile.Tags...)
			p.CategoryID = categoryIDs[a.category]
			profile = &p
		}
		user, err := st.Users.CreateUser(ctx, models.User{
			Username:  a.username,
			Email:     a.email,
			Password:  hash,
			FullName:  a.fullName,
			Role:      a.role,
			CreatedAt: now,
		}, profile)
		if err != nil {
			return false, fmt.Errorf("user %q: %w", a.username, err)
		}
		userIDs[i] = user.ID
		if profile != nil {
			providerIDs = append(providerIDs, profile.ID)
		}
	}

	for _, r := range reviews {
		_, _, err := st.Reviews.CreateReview(ctx, models.Review{
			ProviderID: providerIDs[r.provider],
			CustomerID: userIDs[r.customer],
			Rating:     r.rating,
			Comment:    r.comment,
			CreatedAt:  now,
		})
		if err != nil {
			return false, fmt.Errorf("review for provider %d: %w", providerIDs[r.provider], err)
		}
	}

	for _, r := range requests {
		eventDate := time.Date(now.Year(), now.Month()+time.Month(r.months), r.day, 0, 0, 0, 0, time.UTC)
		_, err := st.Requests.CreateEventRequest(ctx, models.EventRequest{
			CustomerID:  userIDs[r.customer],
			ProviderID:  providerIDs[r.provider],
			CategoryID:  categoryIDs[r.category],
			Title:       r.title,
			Description: r.description,
			EventDate:   eventDate,
			Status:      r.status,
			CreatedAt:   now,
		})
		if err != nil {
			return false, fmt.Errorf("request %q: %w", r.title, err)
		}
	}
	return true, nil
}
