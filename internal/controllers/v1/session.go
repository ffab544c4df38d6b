package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallyplan/backend/internal/editor"
	"github.com/tallyplan/backend/internal/httputil"
)

func RegisterSessionRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("", OptionsSessions)
		r.POST("", CreateSession)
	}
	{
		r.OPTIONS("/:id", OptionsSessionDetail)
		r.GET("/:id", GetSession)
		r.DELETE("/:id", DeleteSession)
	}
	{
		r.OPTIONS("/:id/items", OptionsSessionItems)
		r.POST("/:id/items", CreateSessionItem)
	}
	{
		r.OPTIONS("/:id/items/:itemId", OptionsSessionItemDetail)
		r.PATCH("/:id/items/:itemId", UpdateSessionItem)
		r.DELETE("/:id/items/:itemId", DeleteSessionItem)
	}
	{
		r.OPTIONS("/:id/save", OptionsSessionSave)
		r.POST("/:id/save", SaveSession)
	}
	{
		r.OPTIONS("/:id/refresh", OptionsSessionRefresh)
		r.POST("/:id/refresh", RefreshSession)
	}
	{
		r.OPTIONS("/:id/export", OptionsSessionExport)
		r.GET("/:id/export", ExportSession)
	}
	{
		r.OPTIONS("/:id/error", OptionsSessionError)
		r.DELETE("/:id/error", DismissSessionError)
	}
}

// getSession binds the session ID from the URI and looks the session up.
// On failure the error response has already been written.
func getSession(c *gin.Context) (*editor.Session, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return nil, false
	}

	session, err := sessions.Get(uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return nil, false
	}

	return session, true
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Router			/v1/sessions [options]
func OptionsSessions(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [options]
func OptionsSessionDetail(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsGetDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/items [options]
func OptionsSessionItems(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id		path	URIItemID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/items/{itemId} [options]
func OptionsSessionItemDetail(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsPatchDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/save [options]
func OptionsSessionSave(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/refresh [options]
func OptionsSessionRefresh(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/export [options]
func OptionsSessionExport(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/error [options]
func OptionsSessionError(c *gin.Context) {
	if _, ok := getSession(c); !ok {
		return
	}

	c.Header("allow", "DELETE")
	c.Status(http.StatusNoContent)
}

// @Summary		Open editor session
// @Description	Opens a schedule editor session for a project. The session holds the in-editor state until it is saved or closed.
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		201		{object}	SessionResponse
// @Failure		400		{object}	SessionResponse
// @Failure		404		{object}	SessionResponse
// @Failure		500		{object}	SessionResponse
// @Param			session	body		SessionCreate	true	"Session"
// @Router			/v1/sessions [post]
func CreateSession(c *gin.Context) {
	var create SessionCreate

	err := httputil.BindData(c, &create)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SessionResponse{
			Error: &s,
		})
		return
	}

	session, err := sessions.Open(c.Request.Context(), create.ProjectID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SessionResponse{
			Error: &s,
		})
		return
	}

	apiResource := newSession(c, session.State())
	c.JSON(http.StatusCreated, SessionResponse{Data: &apiResource})
}

// @Summary		Get editor session
// @Description	Returns the current state of a schedule editor session
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [get]
func GetSession(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	apiResource := newSession(c, session.State())
	c.JSON(http.StatusOK, SessionResponse{Data: &apiResource})
}

// @Summary		Close editor session
// @Description	Closes a schedule editor session. Unsaved edits are discarded.
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [delete]
func DeleteSession(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	err := sessions.Close(session.ID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary		Add schedule item
// @Description	Adds a new item to the schedule being edited. The item is only persisted with the next save.
// @Tags			Sessions
// @Produce		json
// @Success		201	{object}	ItemResponse
// @Failure		400	{object}	ItemResponse
// @Failure		404	{object}	ItemResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/items [post]
func CreateSessionItem(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	item := session.AddItem()
	c.JSON(http.StatusCreated, ItemResponse{Data: &item})
}

// @Summary		Update schedule item
// @Description	Applies an edit to one item of the schedule being edited. Only values to be updated need to be specified.
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		200		{object}	ItemResponse
// @Failure		400		{object}	ItemResponse
// @Failure		404		{object}	ItemResponse
// @Param			id		path	URIItemID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		ItemEditable	true	"Item"
// @Router			/v1/sessions/{id}/items/{itemId} [patch]
func UpdateSessionItem(c *gin.Context) {
	var uri URIItemID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemResponse{
			Error: &s,
		})
		return
	}

	session, err := sessions.Get(uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemResponse{
			Error: &s,
		})
		return
	}

	var editable ItemEditable
	err = httputil.BindData(c, &editable)
	if err == nil {
		err = editable.validate()
	}
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemResponse{
			Error: &s,
		})
		return
	}

	item, err := session.UpdateItem(uri.ItemID.UUID, editable.apply)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ItemResponse{Data: &item})
}

// @Summary		Remove schedule item
// @Description	Removes one item from the schedule being edited. The stored row is archived with the next save.
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path	URIItemID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/items/{itemId} [delete]
func DeleteSessionItem(c *gin.Context) {
	var uri URIItemID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	session, err := sessions.Get(uri.ID.UUID)
	if err == nil {
		err = session.RemoveItem(uri.ItemID.UUID)
	}
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary		Save schedule
// @Description	Persists the current editor state. On failure the editor state is untouched, the error sticks to the session and the save can be retried.
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Failure		409	{object}	SessionResponse
// @Failure		502	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/save [post]
func SaveSession(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	err := session.Save(c.Request.Context())
	if err != nil {
		s := err.Error()
		apiResource := newSession(c, session.State())
		c.JSON(status(err), SessionResponse{
			Error: &s,
			Data:  &apiResource,
		})
		return
	}

	apiResource := newSession(c, session.State())
	c.JSON(http.StatusOK, SessionResponse{Data: &apiResource})
}

// @Summary		Refresh schedule
// @Description	Refetches the stored schedule and merges it into the session unless unsaved edits would be overwritten.
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	RefreshResponse
// @Failure		400	{object}	RefreshResponse
// @Failure		404	{object}	RefreshResponse
// @Failure		500	{object}	RefreshResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/refresh [post]
func RefreshSession(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	applied, err := session.Refresh(c.Request.Context())
	if err != nil {
		s := err.Error()
		c.JSON(status(err), RefreshResponse{
			Error: &s,
		})
		return
	}

	apiResource := newSession(c, session.State())
	c.JSON(http.StatusOK, RefreshResponse{
		Applied: applied,
		Data:    &apiResource,
	})
}

// @Summary		Export unsaved state
// @Description	Returns the current editor state as a JSON document for manual recovery when saves keep failing.
// @Tags			Sessions
// @Produce		json
// @Success		200
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/export [get]
func ExportSession(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	data, err := session.Export()
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpError{
			Error: err.Error(),
		})
		return
	}

	c.Header("content-disposition", "attachment; filename=schedule-export.json")
	c.Data(http.StatusOK, "application/json", data)
}

// @Summary		Dismiss save error
// @Description	Clears the sticky error of the last failed save
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/error [delete]
func DismissSessionError(c *gin.Context) {
	session, ok := getSession(c)
	if !ok {
		return
	}

	session.DismissError()
	c.Status(http.StatusNoContent)
}
