package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"TeamHive/global"
	"TeamHive/logger"
	mid "TeamHive/middleware"
	"TeamHive/module/project"
	"TeamHive/module/social"
	socialservice "TeamHive/module/social/service"
	"TeamHive/module/task"
	"TeamHive/module/user"
	userservice "TeamHive/module/user/service"
	"TeamHive/service/dispatcher"
	"TeamHive/service/mgo"
	"TeamHive/service/natsx"
	"TeamHive/service/presence"
	storage "TeamHive/service/storage"
	"TeamHive/tools/safe"
)

func main() {
	ctx := context.Background()

	// 基础设施：ids / redis / mongo / kafka
	global.ConfigAll(ctx)
	defer dispatcher.Close()
	defer logger.Sync()

	// mongo 就绪后补索引
	safe.Go(func() {
		<-mgo.Ready()
		if err := mgo.Err(); err != nil {
			logger.Errorf("[boot] mongo unavailable: %v", err)
			return
		}
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := userservice.EnsureIndexes(ictx); err != nil {
			logger.Warnf("[boot] user indexes: %v", err)
		}
		if err := socialservice.EnsureIndexes(ictx); err != nil {
			logger.Warnf("[boot] social indexes: %v", err)
		}
	})

	// 上传走本地目录；替换 BlobStore 即可接对象存储
	blobs := &storage.LocalBlobStore{Dir: "uploads", BaseURL: "/uploads"}
	user.Blobs = blobs
	project.Blobs = blobs

	// presence：连接管理 + 扇出 + 跨节点 relay
	mgr := presence.NewConnManager(presence.ManagerConf{}, global.Global.NodeID)
	defer mgr.Close()
	fan := presence.NewFanout(4, 256)
	defer fan.Close()

	var relay *natsx.Relay
	if global.Global.NatsURL != "" {
		r, err := natsx.NewRelay(natsx.Config{
			URL:  global.Global.NatsURL,
			Name: "teamhive-" + global.Global.NodeID,
		}, global.Global.NodeID)
		if err != nil {
			logger.Warnf("[boot] nats unavailable, presence stays node-local: %v", err)
		} else {
			relay = r
			defer relay.Close()
		}
	}

	b := presence.NewBroadcaster(mgr, fan, relay, 2*time.Minute)
	if relay != nil {
		if err := relay.Subscribe(b.HandleRemote); err != nil {
			logger.Warnf("[boot] relay subscribe: %v", err)
		}
	}
	ws := &presence.Server{Mgr: mgr, B: b}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mid.Origin())

	r.GET("/ws", ws.HandleWS)
	r.Static("/uploads", "uploads")
	r.GET("/healthz", handlerHealthz)

	user.RegisterRoutes(r)
	social.RegisterRoutes(r)
	project.RegisterRoutes(r)
	task.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", global.Global.Port)
	log.Printf("[HTTP] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// handlerHealthz reports not-ready until the mongo manager has connected,
// so the load balancer holds traffic during startup and reconnect windows.
func handlerHealthz(c *gin.Context) {
	if _, ok := mgo.TryGetDB(); !ok {
		c.String(http.StatusServiceUnavailable, "mongo: not ready")
		return
	}
	c.String(http.StatusOK, "ok")
}
