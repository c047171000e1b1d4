package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codedesk/internal/logging"
	"codedesk/internal/orchestrator"
	"codedesk/internal/types"
	"codedesk/internal/workspace"
)

// Handlers binds the engine and workspace services to HTTP routes.
type Handlers struct {
	engine  *orchestrator.Orchestrator
	files   types.FileStore
	watcher *workspace.Watcher
	status  func() map[string]bool
}

// NewHandlers wires the route handlers. watcher and status may be nil.
func NewHandlers(engine *orchestrator.Orchestrator, files types.FileStore, watcher *workspace.Watcher, status func() map[string]bool) *Handlers {
	return &Handlers{engine: engine, files: files, watcher: watcher, status: status}
}

// Register attaches all routes.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/process", h.process)
		v1.POST("/conversations", h.createConversation)
		v1.GET("/conversations", h.listConversations)
		v1.GET("/conversations/:id", h.getConversation)
		v1.GET("/conversations/:id/context", h.getContext)
		v1.PUT("/conversations/:id/context", h.updateContext)
		v1.POST("/agents/:type", h.invokeAgent)
		v1.GET("/metrics", h.metrics)
		v1.GET("/files/*path", h.readFile)
		v1.PUT("/files/*path", h.writeFile)
	}
}

func (h *Handlers) process(c *gin.Context) {
	var req orchestrator.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body: "+err.Error())
		return
	}

	// Ambient workspace context underlays the caller's fragment.
	if h.watcher != nil {
		req.Context = h.watcher.Context().Merge(req.Context)
	}

	result, err := h.engine.Process(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createConversationRequest struct {
	Context types.Context `json:"context,omitempty"`
}

func (h *Handlers) createConversation(c *gin.Context) {
	var req createConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "malformed request body: "+err.Error())
			return
		}
	}
	id := h.engine.CreateConversation(req.Context)
	c.JSON(http.StatusCreated, gin.H{"conversation_id": id})
}

func (h *Handlers) listConversations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"conversations": h.engine.ListConversations()})
}

func (h *Handlers) getConversation(c *gin.Context) {
	conv, err := h.engine.GetConversation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handlers) getContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"context": h.engine.GetContext(c.Param("id"))})
}

func (h *Handlers) updateContext(c *gin.Context) {
	var fragment types.Context
	if err := c.ShouldBindJSON(&fragment); err != nil {
		respondBadRequest(c, "malformed context fragment: "+err.Error())
		return
	}
	merged := h.engine.UpdateContext(c.Param("id"), fragment)
	c.JSON(http.StatusOK, gin.H{"context": merged})
}

func (h *Handlers) invokeAgent(c *gin.Context) {
	agentType := types.AgentType(c.Param("type"))
	switch agentType {
	case types.AgentChat, types.AgentCode, types.AgentReasoning:
	default:
		respondBadRequest(c, "unknown agent type: "+string(agentType))
		return
	}

	var req types.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body: "+err.Error())
		return
	}

	result, err := h.engine.InvokeAgent(c.Request.Context(), agentType, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *Handlers) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.status != nil {
		resp["providers"] = h.status()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) readFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	if c.Query("list") == "true" || path == "" {
		entries, err := h.files.List(path)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path, "entries": entries})
		return
	}

	content, err := h.files.Read(path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "content": content})
}

type writeFileRequest struct {
	Content string `json:"content"`
}

func (h *Handlers) writeFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		respondBadRequest(c, "path required")
		return
	}

	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body: "+err.Error())
		return
	}

	if err := h.files.Write(path, req.Content); err != nil {
		respondError(c, err)
		return
	}
	logging.ServerDebug("file written via api: %s", path)
	c.JSON(http.StatusOK, gin.H{"path": path})
}
