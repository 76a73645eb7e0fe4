package presence

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"TeamHive/global"
	"TeamHive/logger"
	"TeamHive/tools/safe"
	jwtlib "TeamHive/tools/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	Mgr *ConnManager
	B   *Broadcaster
}

const (
	writeWait = 10 * time.Second
	pingEvery = 30 * time.Second
	pongWait  = 75 * time.Second
)

// HandleWS upgrades `/ws` and pins the connection to the identity inside
// the session token. 前置校验：坏令牌根本不升级，presence 不相信客户端
// 自报的 userId。
func (s *Server) HandleWS(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, err := jwtlib.Verify(jwtlib.DefaultOptions(global.GetJwtSecret()), token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	client, first := s.Mgr.Add(userID, ws)
	logger.Infof("[ws] connect userID=%s connID=%s first=%v", userID, client.ConnID, first)
	s.B.ClientConnected(c.Request.Context(), userID, first)

	// ---- 写协程：唯一写入方（数据帧 + ping） ----
	safe.Go(func() { s.writeLoop(client) })

	// ---- 读循环：只读；出错即收尾 ----
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		s.Mgr.Touch(ws)
		s.B.Renew(userID)
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// presence 通道是单向的；客户端来帧只用于保活
		if _, _, rerr := ws.ReadMessage(); rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed connID=%s", client.ConnID)
			} else {
				logger.Infof("[ws] read err connID=%s err=%v", client.ConnID, rerr)
			}
			break
		}
		s.Mgr.Touch(ws)
	}

	_, last := s.Mgr.Remove(ws)
	closeQuiet(ws)
	s.B.ClientDisconnected(c.Request.Context(), userID, last)
	logger.Infof("[ws] disconnect userID=%s connID=%s last=%v", userID, client.ConnID, last)
}

func (s *Server) writeLoop(c *Client) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			return
		case msg := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, msg); err != nil {
				closeQuiet(c.WS)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				closeQuiet(c.WS)
				return
			}
		}
	}
}

// 连接令牌：?token= 或 Authorization: Bearer
func extractToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return ""
}
