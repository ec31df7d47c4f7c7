package models

import "time"

// RecentContact is the projection shown in the "recent contacts" feed.
type RecentContact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentProject is the projection shown in the "recent projects" feed.
type RecentProject struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentBlogPost is the projection shown in the "recent posts" feed.
type RecentBlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

func (c RecentContact) Created() time.Time  { return c.CreatedAt }
func (p RecentProject) Created() time.Time  { return p.CreatedAt }
func (b RecentBlogPost) Created() time.Time { return b.CreatedAt }

// Recent column projections, in select order.
var (
	RecentContactColumns  = []string{"id", "name", "email", "subject", "created_at"}
	RecentProjectColumns  = []string{"id", "title", "status", "created_at"}
	RecentBlogPostColumns = []string{"id", "title", "slug", "published", "created_at"}
)
