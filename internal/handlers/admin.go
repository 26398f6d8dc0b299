package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"terramap/api/internal/middleware"
	"terramap/api/internal/service"
)

type adminUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h HandlerSet) GetUsers(c *gin.Context) {
	users, err := h.roleService.ListUsers(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, adminUserResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt,
		})
	}

	ok(c, http.StatusOK, "", gin.H{"users": resp})
}

func (h HandlerSet) ToggleAdmin(c *gin.Context) {
	newRole, err := h.roleService.ToggleAdmin(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "role updated", gin.H{
		"new_role": string(newRole),
	})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.roleService.DeleteUser(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "user deleted", nil)
}

func (h HandlerSet) SystemStats(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	total, admins, err := h.roleService.UserCounts(c.Request.Context(), identity)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	terrainStats, err := h.terrainService.SystemStats(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{
		"users":      gin.H{"total": total, "admins": admins},
		"terrains":   terrainStats.Count,
		"total_area": terrainStats.TotalArea,
	})
}

type executeSQLRequest struct {
	Query string `json:"query" binding:"required"`
}

func (h HandlerSet) ExecuteSQL(c *gin.Context) {
	var req executeSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "query is required")
		return
	}

	console, err := service.OpenConsole(middleware.CurrentIdentity(c), h.db)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	result, err := console.Execute(c.Request.Context(), req.Query)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	if result.Kind == service.KindRead {
		ok(c, http.StatusOK, "", gin.H{
			"type":      string(result.Kind),
			"columns":   result.Columns,
			"results":   result.Rows,
			"row_count": result.RowCount,
		})
		return
	}

	body := gin.H{
		"type":          string(result.Kind),
		"affected_rows": result.AffectedRows,
	}
	if result.LastInsertID != nil {
		body["last_insert_id"] = *result.LastInsertID
	}
	ok(c, http.StatusOK, "", body)
}

func (h HandlerSet) GetTablesList(c *gin.Context) {
	console, err := service.OpenConsole(middleware.CurrentIdentity(c), h.db)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	tables, err := console.ListTables(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}

	ok(c, http.StatusOK, "", gin.H{"tables": tables})
}

func (h HandlerSet) GetTableStructure(c *gin.Context) {
	console, err := service.OpenConsole(middleware.CurrentIdentity(c), h.db)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	structure, err := console.DescribeTable(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{"structure": structure})
}
