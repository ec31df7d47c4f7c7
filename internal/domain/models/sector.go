package models

import "time"

// Sector is a portfolio sector as persisted by the backend.
type Sector struct {
	ID          string       `bson:"_id" json:"id"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description" json:"description"`
	Services    []string     `bson:"services" json:"services"`
	Icon        string       `bson:"icon" json:"icon"`
	Image       string       `bson:"image" json:"image"`
	Content     ContentModal `bson:"content_modal" json:"content_modal"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ContentModal is the nested detail document shown in the public
// sector modal.
type ContentModal struct {
	HeroTitle    string    `bson:"hero_title" json:"hero_title"`
	HeroSubtitle string    `bson:"hero_subtitle" json:"hero_subtitle"`
	Description  string    `bson:"description" json:"description"`
	Highlights   []string  `bson:"highlights" json:"highlights"`
	TechStack    []string  `bson:"tech_stack" json:"tech_stack"`
	CaseStudy    CaseStudy `bson:"case_study" json:"case_study"`
	CTAText      string    `bson:"cta_text" json:"cta_text"`
}

// CaseStudy is the case-study block inside ContentModal.
type CaseStudy struct {
	Title   string `bson:"title" json:"title"`
	Results string `bson:"results" json:"results"`
}
