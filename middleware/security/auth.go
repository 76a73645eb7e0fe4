package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"TeamHive/global"
	"TeamHive/tools/errs"
	jwtlib "TeamHive/tools/security"
)

// —— context key ——
// 后续模块统一用这个 key 读取当前用户
const CtxUserIDKey = "currentUserID"

type Options struct {
	CookieName   string // 默认 "token"
	EnableBearer bool   // 默认 true：兼容 Authorization: Bearer xxx
	JWT          jwtlib.Options
}

func DefaultOptions() *Options {
	return &Options{
		CookieName:   "token",
		EnableBearer: true,
		JWT:          jwtlib.DefaultOptions(global.GetJwtSecret()),
	}
}

// Middleware verifies the session token (cookie or bearer header) and puts
// the verified user id into the gin context. No token, bad token: 401.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := extractToken(c, opts)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated)
			return
		}
		userID, err := jwtlib.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errs.ErrUnauthenticated.WithDetail("invalid or expired session"))
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context, opts *Options) string {
	if opts.EnableBearer {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				return strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if opts.CookieName != "" {
		if v, err := c.Cookie(opts.CookieName); err == nil {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// CurrentUserID returns the verified user id set by Middleware.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(CtxUserIDKey)
	s, _ := v.(string)
	return s
}
