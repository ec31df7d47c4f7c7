// internal/app/features/sectors/types.go
package sectors

import (
	"html/template"

	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	"github.com/dalemusser/folioadmin/internal/app/system/flash"
	"github.com/dalemusser/folioadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/folioadmin/internal/domain/models"
)

// listErrorMessage is the only text shown when the list fails to load.
const listErrorMessage = "Failed to load sectors. Please try again."

// listState selects which part of the list fragment renders.
type listState string

const (
	listLoading listState = "loading"
	listError   listState = "error"
	listEmpty   listState = "empty"
	listReady   listState = "ready"
)

type sectorCard struct {
	ID              string
	Title           string
	Description     string
	Icon            string
	Image           string
	Services        []string
	HeroTitle       string
	LongDescription template.HTML
	Touched         string
}

type listVM struct {
	State        listState
	ErrorMessage string
	Sectors      []sectorCard
	CSRFToken    string
}

// newListVM picks the list state. An error wins over any rows.
func newListVM(sectors []models.Sector, err error) listVM {
	switch {
	case err != nil:
		return listVM{State: listError, ErrorMessage: listErrorMessage}
	case len(sectors) == 0:
		return listVM{State: listEmpty}
	}
	cards := make([]sectorCard, 0, len(sectors))
	for _, s := range sectors {
		cards = append(cards, sectorCard{
			ID:              s.ID,
			Title:           s.Title,
			Description:     s.Description,
			Icon:            s.Icon,
			Image:           s.Image,
			Services:        s.Services,
			HeroTitle:       s.Content.HeroTitle,
			LongDescription: htmlsanitize.PrepareForDisplay(s.Content.Description),
			Touched:         sectorstore.Touched(s).Format("Jan 2, 2006"),
		})
	}
	return listVM{State: listReady, Sectors: cards}
}

type pageVM struct {
	viewdata.BaseVM
	List listVM
}

// formVM backs the create and edit dialog.
type formVM struct {
	viewdata.BaseVM
	Mode   string // "create" or "edit"
	Action string
	Form   models.SectorForm
	Errors []string
}

// IsEdit reports whether the dialog edits an existing sector.
func (vm formVM) IsEdit() bool { return vm.Mode == "edit" }

type deleteVM struct {
	viewdata.BaseVM
	Target models.Sector
	Action string
	Errors []string
}

// notices collects workflow notifications during one request. Successes
// are moved to the flash store before redirecting; errors are shown in
// the still-open dialog.
type notices struct {
	msgs []flash.Message
}

func (n *notices) Success(msg string) {
	n.msgs = append(n.msgs, flash.Message{Kind: flash.Success, Text: msg})
}

func (n *notices) Error(msg string) {
	n.msgs = append(n.msgs, flash.Message{Kind: flash.Error, Text: msg})
}

func (n *notices) errors() []string {
	var out []string
	for _, m := range n.msgs {
		if m.Kind == flash.Error {
			out = append(out, m.Text)
		}
	}
	return out
}
