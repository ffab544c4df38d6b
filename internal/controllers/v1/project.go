package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ryanuber/go-glob"

	"github.com/tallyplan/backend/internal/httputil"
	"github.com/tallyplan/backend/internal/models"
)

func RegisterProjectRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("", OptionsProjects)
		r.GET("", GetProjects)
		r.POST("", CreateProjects)
	}
	{
		r.OPTIONS("/:id", OptionsProjectDetail)
		r.GET("/:id", GetProject)
		r.PATCH("/:id", UpdateProject)
		r.DELETE("/:id", DeleteProject)
	}
	{
		r.OPTIONS("/:id/schedule", OptionsProjectSchedule)
		r.GET("/:id/schedule", GetProjectSchedule)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Projects
// @Success		204
// @Router			/v1/projects [options]
func OptionsProjects(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Projects
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/projects/{id} [options]
func OptionsProjectDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.Project{}, uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Projects
// @Success		204
// @Failure		400	{object}	httpError
// @Router			/v1/projects/{id}/schedule [options]
func OptionsProjectSchedule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Create projects
// @Description	Creates new projects
// @Tags			Projects
// @Produce		json
// @Success		201			{object}	ProjectCreateResponse
// @Failure		400			{object}	ProjectCreateResponse
// @Failure		500			{object}	ProjectCreateResponse
// @Param			projects	body		[]ProjectEditable	true	"Projects"
// @Router			/v1/projects [post]
func CreateProjects(c *gin.Context) {
	var editables []ProjectEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ProjectCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	resultStatus := http.StatusCreated
	r := ProjectCreateResponse{}

	for _, editable := range editables {
		project := editable.model()
		err = models.DB.Create(&project).Error
		if err != nil {
			resultStatus = r.appendError(err, resultStatus)
			continue
		}

		apiResource := newProject(c, project)
		r.Data = append(r.Data, ProjectResponse{Data: &apiResource})
	}

	c.JSON(resultStatus, r)
}

// @Summary		Get projects
// @Description	Returns a list of projects
// @Tags			Projects
// @Produce		json
// @Success		200	{object}	ProjectListResponse
// @Failure		400	{object}	ProjectListResponse
// @Failure		500	{object}	ProjectListResponse
// @Router			/v1/projects [get]
// @Param			name		query	string	false	"Filter by name, glob patterns are supported"
// @Param			archived	query	bool	false	"Is the project archived?"
// @Param			offset		query	uint	false	"The offset of the first project returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of projects to return. Defaults to 50."
func GetProjects(c *gin.Context) {
	var filter ProjectQueryFilter

	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ProjectListResponse{
			Error: &s,
		})
		return
	}

	// Set the default number of resources to return
	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}

	var projects []models.Project
	err := models.DB.
		Where(&models.Project{Archived: filter.Archived}, "Archived").
		Order("name asc").
		Offset(int(filter.Offset)).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectListResponse{
			Error: &s,
		})
		return
	}

	data := make([]Project, 0, len(projects))
	for _, project := range projects {
		if filter.Name != "" && !glob.Glob(filter.Name, project.Name) {
			continue
		}

		data = append(data, newProject(c, project))
	}

	c.JSON(http.StatusOK, ProjectListResponse{Data: data})
}

// @Summary		Get project
// @Description	Returns a specific project
// @Tags			Projects
// @Produce		json
// @Success		200	{object}	ProjectResponse
// @Failure		400	{object}	ProjectResponse
// @Failure		404	{object}	ProjectResponse
// @Failure		500	{object}	ProjectResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/projects/{id} [get]
func GetProject(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	var project models.Project
	err = models.DB.First(&project, uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	apiResource := newProject(c, project)
	c.JSON(http.StatusOK, ProjectResponse{Data: &apiResource})
}

// @Summary		Update project
// @Description	Updates an existing project. Only values to be updated need to be specified. A changed contract total is propagated to open schedule editor sessions.
// @Tags			Projects
// @Accept			json
// @Produce		json
// @Success		200		{object}	ProjectResponse
// @Failure		400		{object}	ProjectResponse
// @Failure		404		{object}	ProjectResponse
// @Failure		500		{object}	ProjectResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			project	body		ProjectEditable	true	"Project"
// @Router			/v1/projects/{id} [patch]
func UpdateProject(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	var project models.Project
	err = models.DB.First(&project, uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	// Pre-fill the editable with the current state so that fields
	// missing from the request body stay unchanged
	editable := ProjectEditable{
		Name:          project.Name,
		Note:          project.Note,
		ContractTotal: project.ContractTotal,
		Archived:      project.Archived,
	}

	err = httputil.BindData(c, &editable)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	totalChanged := !editable.ContractTotal.Equal(project.ContractTotal)

	err = models.DB.Model(&project).
		Select("Name", "Note", "ContractTotal", "Archived").
		Updates(editable.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ProjectResponse{
			Error: &s,
		})
		return
	}

	// Open editors re-derive their percentage and remaining items from
	// the new total
	if totalChanged {
		sessions.UpdateTotal(project.ID, editable.ContractTotal)
	}

	apiResource := newProject(c, project)
	c.JSON(http.StatusOK, ProjectResponse{Data: &apiResource})
}

// @Summary		Delete project
// @Description	Deletes a project
// @Tags			Projects
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/projects/{id} [delete]
func DeleteProject(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var project models.Project
	err = models.DB.First(&project, uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&project).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary		Get payment schedule
// @Description	Returns the persisted payment schedule of a project. Archived rows are not included.
// @Tags			Projects
// @Produce		json
// @Success		200	{object}	ScheduleListResponse
// @Failure		400	{object}	ScheduleListResponse
// @Failure		404	{object}	ScheduleListResponse
// @Failure		500	{object}	ScheduleListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/projects/{id}/schedule [get]
func GetProjectSchedule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ScheduleListResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.First(&models.Project{}, uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ScheduleListResponse{
			Error: &s,
		})
		return
	}

	var rows []models.ScheduleItem
	err = models.DB.
		Where(&models.ScheduleItem{ProjectID: uri.ID.UUID}).
		Where("archived = ?", false).
		Order("sort_order asc").
		Find(&rows).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ScheduleListResponse{
			Error: &s,
		})
		return
	}

	data := make([]ScheduleItemObject, 0, len(rows))
	for _, row := range rows {
		data = append(data, ScheduleItemObject{
			DefaultModel: row.DefaultModel,
			Label:        row.Label,
			Note:         row.Note,
			DueDate:      row.DueDate,
			Mode:         row.Mode,
			Percent:      row.Percent,
			FixedAmount:  row.FixedAmount,
			Amount:       row.Amount,
			SortOrder:    row.SortOrder,
		})
	}

	c.JSON(http.StatusOK, ScheduleListResponse{Data: data})
}
