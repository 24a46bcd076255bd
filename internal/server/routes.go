package server

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type notifyRequest struct {
	Host     string `json:"host"`
	Header   string `json:"header"`
	Message  string `json:"message"`
	Icon     string `json:"icon"`
	IconFile string `json:"icon_file"`
	IconName string `json:"icon_name"`
	IconData []byte `json:"icon_data"`
}

type actionRequest struct {
	Host    string `json:"host"`
	Kind    string `json:"kind"`
	Command string `json:"command" binding:"required"`
}

type pingRequest struct {
	Host string `json:"host"`
}

func (r *Relay) RegisterRoutes() {
	r.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(r.Appeared).String(),
			"component": r.Name,
			"target":    r.DefaultHost,
		})
	})

	r.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.router.POST("/notify", func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		host, ok := r.host(c, req.Host)
		if !ok {
			return
		}
		icon, err := protocol.ParseIconKind(req.Icon)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ref, ok := iconRef(c, req)
		if !ok {
			return
		}
		sent := r.sender.SendNotification(c.Request.Context(), req.Header, req.Message, icon, ref, host)
		respondSent(c, sent)
	})

	r.router.POST("/action", func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		host, ok := r.host(c, req.Host)
		if !ok {
			return
		}
		kind, err := protocol.ParseActionKind(req.Kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondSent(c, r.sender.SendAction(c.Request.Context(), host, kind, req.Command))
	})

	r.router.POST("/ping", func(c *gin.Context) {
		var req pingRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		host, ok := r.host(c, req.Host)
		if !ok {
			return
		}
		respondSent(c, r.sender.SendPing(c.Request.Context(), host))
	})
}

func (r *Relay) host(c *gin.Context, requested string) (string, bool) {
	host := strings.TrimSpace(requested)
	if host == "" {
		host = r.DefaultHost
	}
	if host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host is required"})
		return "", false
	}
	return host, true
}

// iconRef only accepts bare file names so requests cannot read outside the
// configured icon directory.
func iconRef(c *gin.Context, req notifyRequest) (eventclient.IconRef, bool) {
	if len(req.IconData) > 0 {
		return eventclient.IconBytes(req.IconName, req.IconData), true
	}
	name := strings.TrimSpace(req.IconFile)
	if name == "" {
		return eventclient.IconRef{}, true
	}
	if filepath.Base(name) != name || name == ".." {
		c.JSON(http.StatusBadRequest, gin.H{"error": "icon_file must be a bare file name"})
		return eventclient.IconRef{}, false
	}
	return eventclient.IconRef{Path: name, Name: req.IconName}, true
}

func respondSent(c *gin.Context, sent bool) {
	if !sent {
		c.JSON(http.StatusBadGateway, gin.H{"sent": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}
