package task

import (
	"time"

	"github.com/gin-gonic/gin"

	mid "TeamHive/middleware"
	midsec "TeamHive/middleware/security"
	projectmodel "TeamHive/module/project/model"
	taskmodel "TeamHive/module/task/model"
	"TeamHive/module/task/service"
	"TeamHive/tools/decode"
	"TeamHive/tools/errs"
)

func RegisterRoutes(r gin.IRoutes) {
	auth := mid.RouteOpt{IsAuth: true}
	mid.GET(r, "/projects/:projectId/tasks", HandlerList, auth)
	mid.POST(r, "/projects/:projectId/tasks", HandlerCreate, auth)
	mid.GET(r, "/projects/:projectId/tasks/:taskId", HandlerGet, auth)
	mid.PUT(r, "/projects/:projectId/tasks/:taskId", HandlerUpdate, auth)
	mid.DELETE(r, "/projects/:projectId/tasks/:taskId", HandlerDelete, auth)
}

func HandlerList(c *gin.Context) {
	tasks, err := service.List(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, tasks)
}

func HandlerCreate(c *gin.Context) {
	var body struct {
		Title       string                `json:"title"`
		Description string                `json:"description"`
		Feedback    string                `json:"feedback"`
		AssignedTo  string                `json:"assignedTo"`
		Status      taskmodel.Status      `json:"status"`
		Priority    projectmodel.Priority `json:"priority"`
		StartDate   time.Time             `json:"startDate"`
		DueDate     *time.Time            `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("malformed body"))
		return
	}
	t, err := service.Create(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), service.CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Feedback:    body.Feedback,
		AssignedTo:  body.AssignedTo,
		Status:      body.Status,
		Priority:    body.Priority,
		StartDate:   body.StartDate,
		DueDate:     body.DueDate,
	})
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyCreated(c, t)
}

func HandlerGet(c *gin.Context) {
	t, err := service.GetByID(c.Request.Context(), c.Param("projectId"), c.Param("taskId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, t)
}

func HandlerUpdate(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("malformed body"))
		return
	}
	var patch service.Patch
	if err := decode.Patch(raw, &patch); err != nil {
		mid.ReplyError(c, err)
		return
	}
	t, err := service.Update(c.Request.Context(), c.Param("projectId"), c.Param("taskId"), midsec.CurrentUserID(c), patch)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, t)
}

func HandlerDelete(c *gin.Context) {
	err := service.Delete(c.Request.Context(), c.Param("projectId"), c.Param("taskId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}
