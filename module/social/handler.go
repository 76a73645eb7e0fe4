package social

import (
	"github.com/gin-gonic/gin"

	mid "TeamHive/middleware"
	midsec "TeamHive/middleware/security"
	"TeamHive/module/social/service"
)

func RegisterRoutes(r gin.IRoutes) {
	auth := mid.RouteOpt{IsAuth: true}
	mid.GET(r, "/social", HandlerProfile, auth)
	mid.POST(r, "/social/request/:recipientId", HandlerSendRequest, auth)
	mid.PUT(r, "/social/request/accept/:otherId", HandlerAcceptRequest, auth)
	mid.PUT(r, "/social/request/reject/:otherId", HandlerRejectRequest, auth)
	mid.PUT(r, "/social/request/cancel/:otherId", HandlerCancelRequest, auth)
	mid.DELETE(r, "/social/friends/:friendId", HandlerRemoveFriend, auth)
}

func HandlerProfile(c *gin.Context) {
	s, err := service.GetProfile(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, s)
}

func HandlerSendRequest(c *gin.Context) {
	err := service.SendRequest(c.Request.Context(), midsec.CurrentUserID(c), c.Param("recipientId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerAcceptRequest(c *gin.Context) {
	err := service.AcceptRequest(c.Request.Context(), midsec.CurrentUserID(c), c.Param("otherId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerRejectRequest(c *gin.Context) {
	err := service.RejectRequest(c.Request.Context(), midsec.CurrentUserID(c), c.Param("otherId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerCancelRequest(c *gin.Context) {
	err := service.CancelRequest(c.Request.Context(), midsec.CurrentUserID(c), c.Param("otherId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}

func HandlerRemoveFriend(c *gin.Context) {
	err := service.RemoveFriend(c.Request.Context(), midsec.CurrentUserID(c), c.Param("friendId"))
	if err != nil {
		mid.ReplyError(c, err)
		return
	}
	mid.ReplyOK(c, gin.H{"ok": true})
}
