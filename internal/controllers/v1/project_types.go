package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tallyplan/backend/internal/httputil"
	"github.com/tallyplan/backend/internal/models"
)

type ProjectEditable struct {
	Name          string          `json:"name" example:"Website relaunch" default:""`                                                 // Name of the project
	Note          string          `json:"note" example:"Fixed-price engagement, paid in milestones" default:""`                       // Note about the project
	ContractTotal decimal.Decimal `json:"contractTotal" example:"10000" minimum:"0" multipleOf:"0.00000001" default:"0"`              // The total the payment schedule allocates
	Archived      bool            `json:"archived" example:"true" default:"false"`                                                    // If this project is still in use or not
}

// model returns the database resource for the API representation of the editable fields
func (editable ProjectEditable) model() models.Project {
	return models.Project{
		Name:          editable.Name,
		Note:          editable.Note,
		ContractTotal: editable.ContractTotal,
		Archived:      editable.Archived,
	}
}

type ProjectLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/projects/438cc6c0-9baf-49fd-a75a-d76bd5cab19c"`              // The project itself
	Schedule string `json:"schedule" example:"https://example.com/api/v1/projects/438cc6c0-9baf-49fd-a75a-d76bd5cab19c/schedule"` // The project's payment schedule
}

type Project struct {
	models.DefaultModel
	ProjectEditable
	Links ProjectLinks `json:"links"`
}

// newProject returns the API v1 representation of the resource
func newProject(c *gin.Context, model models.Project) Project {
	url := httputil.RequestPathV1(c)

	return Project{
		DefaultModel: model.DefaultModel,
		ProjectEditable: ProjectEditable{
			Name:          model.Name,
			Note:          model.Note,
			ContractTotal: model.ContractTotal,
			Archived:      model.Archived,
		},
		Links: ProjectLinks{
			Self:     fmt.Sprintf("%s/projects/%s", url, model.ID),
			Schedule: fmt.Sprintf("%s/projects/%s/schedule", url, model.ID),
		},
	}
}

type ProjectListResponse struct {
	Data  []Project `json:"data"`                                                          // List of resources
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ProjectCreateResponse struct {
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []ProjectResponse `json:"data"`                                                          // List of created resources
}

func (t *ProjectCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	t.Data = append(t.Data, ProjectResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ProjectResponse struct {
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Project `json:"data"`                                                          // The resource
}

type ProjectQueryFilter struct {
	Name     string `form:"name" filterField:"false"`     // Filter by name, glob patterns are supported
	Archived bool   `form:"archived"`                     // Is the project archived?
	Offset   uint   `form:"offset" filterField:"false"`   // The offset of the first project returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`    // Maximum number of projects to return. Defaults to 50.
}

type ScheduleItemObject struct {
	models.DefaultModel
	Label       string              `json:"label" example:"Kickoff payment"`
	Note        string              `json:"note" example:"Due at contract signing"`
	DueDate     *time.Time          `json:"dueDate" example:"2027-01-15T00:00:00Z"`
	Mode        string              `json:"mode" example:"PERCENTAGE"`
	Percent     decimal.NullDecimal `json:"percent"`
	FixedAmount decimal.NullDecimal `json:"fixedAmount"`
	Amount      decimal.Decimal     `json:"amount"`
	SortOrder   int                 `json:"sortOrder"`
}

type ScheduleListResponse struct {
	Data  []ScheduleItemObject `json:"data"`                                                          // The persisted schedule rows
	Error *string              `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}
