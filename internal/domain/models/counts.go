package models

// Counts is the dashboard count snapshot. Every kind always has a value;
// a missing or null remote count is reported as 0.
type Counts struct {
	ContactsCount         int64 `json:"contactsCount"`
	ProjectsCount         int64 `json:"projectsCount"`
	BlogPostsCount        int64 `json:"blogPostsCount"`
	ServicesCount         int64 `json:"servicesCount"`
	SectorsCount          int64 `json:"sectorsCount"`
	NavigationItemsCount  int64 `json:"navigationItemsCount"`
	SkillsCount           int64 `json:"skillsCount"`
	ChatbotKnowledgeCount int64 `json:"chatbotKnowledgeCount"`
}

// Set stores the count for kind k. Nil and negative values are stored as 0.
func (c *Counts) Set(k Kind, n *int64) {
	var v int64
	if n != nil && *n > 0 {
		v = *n
	}
	if p := c.field(k); p != nil {
		*p = v
	}
}

// Get returns the count for kind k (0 for unknown kinds).
func (c Counts) Get(k Kind) int64 {
	if p := c.field(k); p != nil {
		return *p
	}
	return 0
}

func (c *Counts) field(k Kind) *int64 {
	switch k {
	case KindContact:
		return &c.ContactsCount
	case KindProject:
		return &c.ProjectsCount
	case KindBlogPost:
		return &c.BlogPostsCount
	case KindService:
		return &c.ServicesCount
	case KindSector:
		return &c.SectorsCount
	case KindNavigationItem:
		return &c.NavigationItemsCount
	case KindSkill:
		return &c.SkillsCount
	case KindChatbotKnowledge:
		return &c.ChatbotKnowledgeCount
	}
	return nil
}
