package models

import "strings"

// SectorForm is the flattened shape edited in the sector modal. List
// fields hold one entry per line.
type SectorForm struct {
	ID               string
	Title            string
	Description      string
	Services         string
	Icon             string
	Image            string
	HeroTitle        string
	HeroSubtitle     string
	LongDescription  string
	Highlights       string
	TechStack        string
	CaseStudyTitle   string
	CaseStudyResults string
	CTAText          string
}

// SectorFormFields lists the form field names in render order.
var SectorFormFields = []string{
	"id", "title", "description", "services", "icon", "image",
	"hero_title", "hero_subtitle", "long_description", "highlights",
	"tech_stack", "case_study_title", "case_study_results", "cta_text",
}

// FormFromSector flattens s into the edit-form shape.
func FormFromSector(s Sector) SectorForm {
	return SectorForm{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		Services:         joinLines(s.Services),
		Icon:             s.Icon,
		Image:            s.Image,
		HeroTitle:        s.Content.HeroTitle,
		HeroSubtitle:     s.Content.HeroSubtitle,
		LongDescription:  s.Content.Description,
		Highlights:       joinLines(s.Content.Highlights),
		TechStack:        joinLines(s.Content.TechStack),
		CaseStudyTitle:   s.Content.CaseStudy.Title,
		CaseStudyResults: s.Content.CaseStudy.Results,
		CTAText:          s.Content.CTAText,
	}
}

// Get returns the value of the named form field ("" if unknown).
func (f SectorForm) Get(name string) string {
	switch name {
	case "id":
		return f.ID
	case "title":
		return f.Title
	case "description":
		return f.Description
	case "services":
		return f.Services
	case "icon":
		return f.Icon
	case "image":
		return f.Image
	case "hero_title":
		return f.HeroTitle
	case "hero_subtitle":
		return f.HeroSubtitle
	case "long_description":
		return f.LongDescription
	case "highlights":
		return f.Highlights
	case "tech_stack":
		return f.TechStack
	case "case_study_title":
		return f.CaseStudyTitle
	case "case_study_results":
		return f.CaseStudyResults
	case "cta_text":
		return f.CTAText
	}
	return ""
}

// SectorFormFrom builds a form from a lookup such as url.Values.Get.
func SectorFormFrom(get func(string) string) SectorForm {
	return SectorForm{
		ID:               get("id"),
		Title:            get("title"),
		Description:      get("description"),
		Services:         get("services"),
		Icon:             get("icon"),
		Image:            get("image"),
		HeroTitle:        get("hero_title"),
		HeroSubtitle:     get("hero_subtitle"),
		LongDescription:  get("long_description"),
		Highlights:       get("highlights"),
		TechStack:        get("tech_stack"),
		CaseStudyTitle:   get("case_study_title"),
		CaseStudyResults: get("case_study_results"),
		CTAText:          get("cta_text"),
	}
}

// Sector reassembles the nested persistence shape. Only the id is
// trimmed; text fields are carried over as typed.
func (f SectorForm) Sector() Sector {
	return Sector{
		ID:          strings.TrimSpace(f.ID),
		Title:       f.Title,
		Description: f.Description,
		Services:    splitLines(f.Services),
		Icon:        f.Icon,
		Image:       f.Image,
		Content: ContentModal{
			HeroTitle:    f.HeroTitle,
			HeroSubtitle: f.HeroSubtitle,
			Description:  f.LongDescription,
			Highlights:   splitLines(f.Highlights),
			TechStack:    splitLines(f.TechStack),
			CaseStudy: CaseStudy{
				Title:   f.CaseStudyTitle,
				Results: f.CaseStudyResults,
			},
			CTAText: f.CTAText,
		},
	}
}

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}

// splitLines turns textarea input into a list, dropping blank lines.
func splitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
