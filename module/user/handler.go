package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mid "TeamHive/middleware"
	midsec "TeamHive/middleware/security"
	usermodel "TeamHive/module/user/model"
	"TeamHive/module/user/service"
	storage "TeamHive/service/storage"
	"TeamHive/tools/errs"
)

// Verifier is the opaque OAuth-code-to-profile exchange; wired in main.
var Verifier service.ExternalVerifier

// Blobs receives profile photo uploads; wired in main.
var Blobs storage.BlobStore

func RegisterRoutes(r gin.IRoutes) {
	mid.POST(r, "/auth/register", HandlerRegister, mid.RouteOpt{})
	mid.POST(r, "/auth/login", HandlerLogin, mid.RouteOpt{})
	mid.POST(r, "/auth/google-login", HandlerGoogleLogin, mid.RouteOpt{})
	mid.GET(r, "/auth/profile", HandlerProfile, mid.RouteOpt{IsAuth: true})
	mid.PUT(r, "/auth/profile", HandlerUpdateProfile, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/auth/logout", HandlerLogout, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/auth/:userId", HandlerPublicProfile, mid.RouteOpt{IsAuth: true})
}

func HandlerRegister(c *gin.Context) {
	var in struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("malformed body"))
		return
	}
	u, err := service.Register(c.Request.Context(), in.FullName, in.Email, in.Password, in.ConfirmPassword)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyCreated(c, u.Sanitized())
}

func HandlerLogin(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("malformed body"))
		return
	}
	u, token, err := service.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	setSessionCookie(c, token)
	mid.ReplyOK(c, gin.H{"token": token, "user": u.Sanitized()})
}

func HandlerGoogleLogin(c *gin.Context) {
	var in struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Code) == "" {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("code is required"))
		return
	}
	if Verifier == nil {
		mid.ReplyError(c, errs.ErrInternal.WrapMsg("google login not configured"))
		return
	}
	profile, err := Verifier.Exchange(c.Request.Context(), in.Code)
	if err != nil {
		mid.ReplyError(c, errs.ErrUnauthenticated.WrapMsg("code exchange failed"))
		return
	}
	u, token, err := service.GoogleLogin(c.Request.Context(), profile)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	setSessionCookie(c, token)
	mid.ReplyOK(c, gin.H{"token": token, "user": u.Sanitized()})
}

func HandlerProfile(c *gin.Context) {
	u, err := service.GetByID(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, u.Sanitized())
}

// HandlerUpdateProfile accepts JSON, or multipart when a photo rides along.
func HandlerUpdateProfile(c *gin.Context) {
	userID := midsec.CurrentUserID(c)
	var patch service.ProfilePatch

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if v, ok := c.GetPostForm("fullName"); ok {
			patch.FullName = &v
		}
		if v, ok := c.GetPostForm("bio"); ok {
			patch.Bio = &v
		}
		if file, err := c.FormFile("profilePhoto"); err == nil {
			if Blobs == nil {
				mid.ReplyError(c, errs.ErrInternal.WrapMsg("blob store not configured"))
				return
			}
			f, err := file.Open()
			if err != nil {
				mid.ReplyError(c, errs.ErrValidation.WrapMsg("unreadable upload"))
				return
			}
			defer f.Close()
			url, err := Blobs.Put(c.Request.Context(), file.Filename, f)
			if err != nil {
				mid.ReplyError(c, err)
				return
			}
			patch.FaceURL = &url
		}
	} else if err := c.ShouldBindJSON(&patch); err != nil {
		mid.ReplyError(c, errs.ErrValidation.WrapMsg("malformed body"))
		return
	}

	u, err := service.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, u.Sanitized())
}

func HandlerLogout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerPublicProfile(c *gin.Context) {
	u, err := service.GetByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, livePresence(u.Sanitized()))
}

// livePresence overlays the cross-node presence truth from redis; the
// stored flag only reflects this node's last broadcast. Falls back to the
// stored value when the cache is unreachable.
func livePresence(u usermodel.User) usermodel.User {
	if _, online, err := storage.PresenceLookup(u.UserID); err == nil {
		u.IsOnline = online
	}
	return u
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", token, 24*3600, "/", "", false, true)
}
