package models

// Kind identifies one tracked content category. Each kind is stored in
// its own backend table (collection for Mongo).
type Kind string

const (
	KindContact          Kind = "contacts"
	KindProject          Kind = "projects"
	KindBlogPost         Kind = "blog_posts"
	KindService          Kind = "services"
	KindSector           Kind = "sectors"
	KindNavigationItem   Kind = "navigation_items"
	KindSkill            Kind = "skills"
	KindChatbotKnowledge Kind = "chatbot_knowledge"
)

// Kinds lists every tracked kind in dashboard display order.
var Kinds = []Kind{
	KindContact,
	KindProject,
	KindBlogPost,
	KindService,
	KindSector,
	KindNavigationItem,
	KindSkill,
	KindChatbotKnowledge,
}

// Table returns the backend table name for the kind.
func (k Kind) Table() string { return string(k) }

// Label is the human-readable name shown on dashboard cards.
func (k Kind) Label() string {
	switch k {
	case KindContact:
		return "Contacts"
	case KindProject:
		return "Projects"
	case KindBlogPost:
		return "Blog Posts"
	case KindService:
		return "Services"
	case KindSector:
		return "Sectors"
	case KindNavigationItem:
		return "Navigation Items"
	case KindSkill:
		return "Skills"
	case KindChatbotKnowledge:
		return "Chatbot Knowledge"
	}
	return string(k)
}

// IsValid reports whether k is one of the tracked kinds.
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}
