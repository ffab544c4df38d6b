package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"

	"github.com/tallyplan/backend/internal/editor"
	"github.com/tallyplan/backend/internal/httputil"
	"github.com/tallyplan/backend/internal/schedule"
	ez_uuid "github.com/tallyplan/backend/internal/uuid"
)

type SessionCreate struct {
	ProjectID ez_uuid.UUID `json:"projectId" binding:"required" format:"UUID"` // The project whose schedule is edited
}

type SessionLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/sessions/d1b4ed2b-4852-4f71-a461-092255916e64"`            // The session itself
	Items   string `json:"items" example:"https://example.com/api/v1/sessions/d1b4ed2b-4852-4f71-a461-092255916e64/items"`     // The items of the schedule being edited
	Save    string `json:"save" example:"https://example.com/api/v1/sessions/d1b4ed2b-4852-4f71-a461-092255916e64/save"`       // Persist the current editor state
	Refresh string `json:"refresh" example:"https://example.com/api/v1/sessions/d1b4ed2b-4852-4f71-a461-092255916e64/refresh"` // Merge a refetch of the stored schedule
	Export  string `json:"export" example:"https://example.com/api/v1/sessions/d1b4ed2b-4852-4f71-a461-092255916e64/export"`   // Download the unsaved state for manual recovery
}

type Session struct {
	editor.State
	Links SessionLinks `json:"links"`
}

// newSession returns the API v1 representation of the session
func newSession(c *gin.Context, state editor.State) Session {
	url := fmt.Sprintf("%s/sessions/%s", httputil.RequestPathV1(c), state.ID)

	return Session{
		State: state,
		Links: SessionLinks{
			Self:    url,
			Items:   url + "/items",
			Save:    url + "/save",
			Refresh: url + "/refresh",
			Export:  url + "/export",
		},
	}
}

type SessionResponse struct {
	Error *string  `json:"error" example:"there is no editor session with this ID"` // The error, if any occurred
	Data  *Session `json:"data"`                                                    // The resource
}

type RefreshResponse struct {
	Error   *string  `json:"error" example:"there is no editor session with this ID"` // The error, if any occurred
	Applied bool     `json:"applied" example:"false"`                                 // Whether the refresh was merged or dropped to protect unsaved edits
	Data    *Session `json:"data"`                                                    // The session after the refresh
}

type ItemResponse struct {
	Error *string        `json:"error" example:"there is no schedule item with this ID"` // The error, if any occurred
	Data  *schedule.Item `json:"data"`                                                   // The schedule item
}

// ItemEditable contains the fields of a schedule item the operator can
// edit.
//
// Percent and fixedAmount are strings on purpose: the editor sends them
// on every keystroke and partially typed values like "-" or "3." must
// not fail the request. Unparseable input counts as zero.
type ItemEditable struct {
	Label       *string `json:"label" example:"Kickoff payment"`
	Mode        *string `json:"mode" example:"PERCENTAGE" enums:"PERCENTAGE,FIXED,REMAINING"`
	Percent     *string `json:"percent" example:"25"`
	FixedAmount *string `json:"fixedAmount" example:"1500"`
	SortOrder   *int    `json:"sortOrder" example:"3"`
}

var itemModes = []schedule.Mode{schedule.ModePercentage, schedule.ModeFixed, schedule.ModeRemaining}

// validate checks the fields that are not free-form.
func (editable ItemEditable) validate() error {
	if editable.Mode != nil && !slices.Contains(itemModes, schedule.Mode(*editable.Mode)) {
		return errModeInvalid
	}

	return nil
}

// apply returns the change function for the edit. The mode switch runs
// first so that a driving value sent in the same request wins over the
// switch clearing it. A driving value that does not belong to the
// item's mode is ignored, an item only ever carries the input of the
// mode it is in.
func (editable ItemEditable) apply(item schedule.Item) schedule.Item {
	if editable.Mode != nil {
		item = item.WithMode(schedule.Mode(*editable.Mode))
	}

	if editable.Label != nil {
		item = item.WithLabel(*editable.Label)
	}

	if editable.Percent != nil && item.Mode == schedule.ModePercentage {
		item = item.WithPercent(schedule.ParseInput(*editable.Percent))
	}

	if editable.FixedAmount != nil && item.Mode == schedule.ModeFixed {
		item = item.WithFixedAmount(schedule.ParseInput(*editable.FixedAmount))
	}

	if editable.SortOrder != nil {
		item = item.WithSortOrder(*editable.SortOrder)
	}

	return item
}
