package project

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	mid "TeamHive/middleware"
	midsec "TeamHive/middleware/security"
	projectmodel "TeamHive/module/project/model"
	"TeamHive/module/project/service"
	storage "TeamHive/service/storage"
	"TeamHive/tools/decode"
	"TeamHive/tools/errs"
)

// Blobs receives logo uploads; wired in main.
var Blobs storage.BlobStore

func RegisterRoutes(r gin.IRoutes) {
	auth := mid.RouteOpt{IsAuth: true}
	mid.GET(r, "/projects", HandlerList, auth)
	mid.POST(r, "/projects", HandlerCreate, auth)
	mid.GET(r, "/projects/:projectId", HandlerGet, auth)
	mid.PUT(r, "/projects/:projectId", HandlerUpdate, auth)
	mid.DELETE(r, "/projects/:projectId", HandlerDelete, auth)

	mid.POST(r, "/projects/:projectId/members", HandlerAddMember, auth)
	mid.DELETE(r, "/projects/:projectId/members/:memberId", HandlerRemoveMember, auth)
	mid.POST(r, "/projects/:projectId/admins", HandlerAddAdmin, auth)
	mid.DELETE(r, "/projects/:projectId/admins/:adminId", HandlerRemoveAdmin, auth)
	mid.PUT(r, "/projects/:projectId/admins/:adminId/demote", HandlerDemoteAdmin, auth)
	mid.POST(r, "/projects/:projectId/invites", HandlerInvite, auth)
	mid.DELETE(r, "/projects/:projectId/invites/:invitedId", HandlerUninvite, auth)
	mid.GET(r, "/projects/:projectId/non-members", HandlerNonMemberFriends, auth)
}

func HandlerList(c *gin.Context) {
	projects, err := service.ListForUser(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, projects)
}

func HandlerCreate(c *gin.Context) {
	in, err := bindCreate(c)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	p, err := service.Create(c.Request.Context(), midsec.CurrentUserID(c), in)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyCreated(c, p)
}

func HandlerGet(c *gin.Context) {
	p, err := service.GetForRequester(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, p)
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
	p, err := service.Update(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), patch)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, p)
}

func HandlerDelete(c *gin.Context) {
	err := service.Delete(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerAddMember(c *gin.Context) {
	email, err := bindEmail(c)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	u, err := service.AddMember(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), email)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, u.Sanitized())
}

func HandlerRemoveMember(c *gin.Context) {
	err := service.RemoveMember(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), c.Param("memberId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerAddAdmin(c *gin.Context) {
	email, err := bindEmail(c)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	u, err := service.AddAdmin(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), email)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, u.Sanitized())
}

func HandlerRemoveAdmin(c *gin.Context) {
	err := service.RemoveAdmin(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), c.Param("adminId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerDemoteAdmin(c *gin.Context) {
	err := service.DemoteAdmin(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), c.Param("adminId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerInvite(c *gin.Context) {
	email, err := bindEmail(c)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	u, err := service.Invite(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), email)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, u.Sanitized())
}

func HandlerUninvite(c *gin.Context) {
	err := service.Uninvite(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c), c.Param("invitedId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerNonMemberFriends(c *gin.Context) {
	users, err := service.NonMemberFriends(c.Request.Context(), c.Param("projectId"), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, users)
}

func bindEmail(c *gin.Context) (string, error) {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Email) == "" {
		return "", errs.ErrValidation.WrapMsg("email is required")
	}
	return in.Email, nil
}

// bindCreate handles the JSON body and the multipart form the SPA sends
// when a logo file rides along.
func bindCreate(c *gin.Context) (service.CreateInput, error) {
	var in service.CreateInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in.Title = c.PostForm("title")
		in.Description = c.PostForm("description")
		in.Priority = projectmodel.Priority(c.PostForm("priority"))
		in.Status = projectmodel.Status(c.PostForm("status"))
		if v := c.PostForm("startDate"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return in, errs.ErrValidation.WrapMsg("bad startDate")
			}
			in.StartDate = t
		}
		if v := c.PostForm("dueDate"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return in, errs.ErrValidation.WrapMsg("bad dueDate")
			}
			in.DueDate = &t
		}
		if members := c.PostFormArray("members"); len(members) > 0 {
			in.MemberIDs = members
		}
		if file, err := c.FormFile("logo"); err == nil {
			if Blobs == nil {
				return in, errs.ErrInternal.WrapMsg("blob store not configured")
			}
			f, err := file.Open()
			if err != nil {
				return in, errs.ErrValidation.WrapMsg("unreadable upload")
			}
			defer f.Close()
			url, err := Blobs.Put(c.Request.Context(), file.Filename, f)
			if err != nil {
				return in, err
			}
			in.LogoURL = url
		}
		return in, nil
	}

	var body struct {
		Title       string                `json:"title"`
		Description string                `json:"description"`
		LogoURL     string                `json:"logoUrl"`
		StartDate   time.Time             `json:"startDate"`
		DueDate     *time.Time            `json:"dueDate"`
		Priority    projectmodel.Priority `json:"priority"`
		Status      projectmodel.Status   `json:"status"`
		Members     []string              `json:"members"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return in, errs.ErrValidation.WrapMsg("malformed body")
	}
	in = service.CreateInput{
		Title:       body.Title,
		Description: body.Description,
		LogoURL:     body.LogoURL,
		StartDate:   body.StartDate,
		DueDate:     body.DueDate,
		Priority:    body.Priority,
		Status:      body.Status,
		MemberIDs:   body.Members,
	}
	return in, nil
}
