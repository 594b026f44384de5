package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/api/middleware"
	"github.com/cinehub/backoffice/internal/auth"
	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/db/models"
	"github.com/cinehub/backoffice/internal/workbench"
)

var startTime = time.Now()

// activityTimeLayout matches the dd/MM/yyyy HH:mm:ss display of the panel.
const activityTimeLayout = "02/01/2006 15:04:05"

type AdminHandler struct {
	db          *db.Database
	activity    activity.Recorder
	workbenches *workbench.Manager
	uploadPath  string
}

func NewAdminHandler(database *db.Database, rec activity.Recorder, workbenches *workbench.Manager, uploadPath string) *AdminHandler {
	return &AdminHandler{db: database, activity: rec, workbenches: workbenches, uploadPath: uploadPath}
}

// logAccess records an "Admin Access" entry for the requesting admin.
func (h *AdminHandler) logAccess(r *http.Request, description string) {
	logAccess(h.activity, r, description)
}

func logAccess(rec activity.Recorder, r *http.Request, description string) {
	actor := actorFrom(r)
	if rec == nil || actor == nil {
		return
	}
	rec.Log(activity.Entry{
		UserID:      actor.ID,
		Type:        activity.TypeAdminAccess,
		Description: description,
		IPAddress:   actor.IPAddress,
	})
}

type userView struct {
	*models.User
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// ListUsers returns all users with their roles
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.logAccess(r, "Accessed User Management")

	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		jsonError(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		roles, err := h.db.GetUserRoles(r.Context(), u.ID)
		if err != nil {
			roles = []string{}
		}
		views = append(views, userView{User: u, Name: u.DisplayName(), Roles: roles})
	}
	jsonResponse(w, map[string]interface{}{
		"users":      views,
		"totalUsers": len(views),
	}, http.StatusOK)
}

// GetUser returns one user with roles in the success envelope.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		failure(w, "User not found")
		return
	}
	u, err := h.db.GetUserByID(r.Context(), id)
	if db.IsNotFound(err) {
		failure(w, "User not found")
		return
	}
	if err != nil {
		fault(w, "admin", "Error retrieving user data", err)
		return
	}
	roles, err := h.db.GetUserRoles(r.Context(), id)
	if err != nil {
		fault(w, "admin", "Error retrieving user data", err)
		return
	}

	success(w, "", result{"user": map[string]interface{}{
		"id":              u.ID,
		"firstName":       u.FirstName,
		"lastName":        u.LastName,
		"email":           u.Email,
		"userName":        u.Username,
		"displayUserName": u.DisplayName(),
		"isActive":        u.IsActive,
		"createdAt":       u.CreatedAt.Format("02/01/2006 15:04"),
		"roles":           roles,
	}})
}

// CreateUser creates a new user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if !models.ValidRole(req.Role) {
		jsonError(w, "role must be one of: admin, editor, viewer", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	u := &models.User{
		Username:  req.Username,
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  hashed,
		Role:      req.Role,
		IsActive:  true,
	}
	if err := h.db.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			jsonError(w, "username already exists", http.StatusConflict)
			return
		}
		jsonError(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	h.record(r, activity.TypeUserManagement, "Created user "+u.Username)
	jsonResponse(w, u, http.StatusCreated)
}

// UpdateUser updates user details
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var req struct {
		models.UserUpdate
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	existing, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}

	if req.Role != nil && !models.ValidRole(*req.Role) {
		jsonError(w, "role must be one of: admin, editor, viewer", http.StatusBadRequest)
		return
	}

	// Prevent demoting or disabling the last admin
	losesAdmin := (req.Role != nil && *req.Role != models.RoleAdmin) || (req.IsActive != nil && !*req.IsActive)
	if existing.Role == models.RoleAdmin && existing.IsActive && losesAdmin {
		count, err := h.db.CountAdmins(r.Context())
		if err != nil {
			jsonError(w, "failed to check admin count", http.StatusInternalServerError)
			return
		}
		if count <= 1 {
			jsonError(w, "cannot demote the last admin", http.StatusBadRequest)
			return
		}
	}

	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			jsonError(w, "failed to hash password", http.StatusInternalServerError)
			return
		}
		req.PasswordHash = &hashed
	}

	updated, err := h.db.UpdateUser(r.Context(), id, req.UserUpdate)
	if err != nil {
		jsonError(w, "failed to update user", http.StatusInternalServerError)
		return
	}

	h.record(r, activity.TypeUserManagement, "Updated user "+updated.Username)
	jsonResponse(w, updated, http.StatusOK)
}

// DeleteUser removes a user
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	// Prevent self-deletion
	claims := middleware.GetClaims(r)
	if claims != nil && claims.UserID == id {
		jsonError(w, "cannot delete yourself", http.StatusBadRequest)
		return
	}

	// Prevent deleting the last admin
	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	if user.Role == models.RoleAdmin && user.IsActive {
		count, err := h.db.CountAdmins(r.Context())
		if err != nil {
			jsonError(w, "failed to check admin count", http.StatusInternalServerError)
			return
		}
		if count <= 1 {
			jsonError(w, "cannot delete the last admin", http.StatusBadRequest)
			return
		}
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		jsonError(w, "failed to delete user", http.StatusInternalServerError)
		return
	}
	if h.workbenches != nil {
		h.workbenches.Drop(id)
	}

	h.record(r, activity.TypeUserManagement, "Deleted user "+user.Username)
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// GetUserActivities returns the 50 most recent entries and the total count.
func (h *AdminHandler) GetUserActivities(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "User ID is required", http.StatusBadRequest)
		return
	}
	h.logAccess(r, fmt.Sprintf("Viewed activity log for user %d", id))

	ctx := r.Context()
	entries, err := h.db.ListActivities(ctx, id, 50)
	if err != nil {
		fault500(w, "Error retrieving user activities", err)
		return
	}
	total, err := h.db.CountActivities(ctx, id)
	if err != nil {
		fault500(w, "Error retrieving user activities", err)
		return
	}

	var user interface{}
	if u, err := h.db.GetUserByID(ctx, id); err == nil {
		user = map[string]interface{}{
			"id":       u.ID,
			"name":     strings.TrimSpace(u.FirstName + " " + u.LastName),
			"username": u.Username,
			"email":    u.Email,
		}
	}

	items := make([]map[string]interface{}, 0, len(entries))
	for _, a := range entries {
		items = append(items, map[string]interface{}{
			"id":           a.ID,
			"activityType": a.ActivityType,
			"description":  a.Description,
			"createdAt":    a.CreatedAt.Local().Format(activityTimeLayout),
			"ipAddress":    a.IPAddress,
		})
	}

	jsonResponse(w, map[string]interface{}{
		"user":       user,
		"activities": items,
		"totalCount": total,
	}, http.StatusOK)
}

type storageStats struct {
	Total     uint64 `json:"total"`
	Used      uint64 `json:"used"`
	Free      uint64 `json:"free"`
	TotalText string `json:"total_text"`
	FreeText  string `json:"free_text"`
}

// Analytics returns catalogue and system totals. The counts are fetched
// concurrently.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	h.logAccess(r, "Accessed Analytics")

	var users, movies, activities int
	var disk storageStats
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.db.CountUsers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		movies, err = h.db.CountMovies(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = h.db.CountActivities(ctx, 0)
		return err
	})
	g.Go(func() error {
		disk = diskUsage(h.uploadPath)
		return nil
	})
	if err := g.Wait(); err != nil {
		jsonError(w, "Error loading analytics", http.StatusInternalServerError)
		return
	}

	sessions := 0
	if h.workbenches != nil {
		sessions = h.workbenches.Len()
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	jsonResponse(w, map[string]interface{}{
		"totalUsers":        users,
		"totalMovies":       movies,
		"totalActivities":   activities,
		"workbenchSessions": sessions,
		"storage":           disk,
		"system": map[string]interface{}{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"mem_alloc":      memStat.Alloc,
			"mem_alloc_text": humanize.IBytes(memStat.Alloc),
		},
	}, http.StatusOK)
}

func (h *AdminHandler) record(r *http.Request, activityType, description string) {
	actor := actorFrom(r)
	if h.activity == nil || actor == nil {
		return
	}
	h.activity.Log(activity.Entry{
		UserID:      actor.ID,
		Type:        activityType,
		Description: description,
		IPAddress:   actor.IPAddress,
	})
}

func fault500(w http.ResponseWriter, msg string, err error) {
	logFault("admin", msg, err)
	jsonError(w, msg, http.StatusInternalServerError)
}

// limitParam reads a positive integer query parameter.
func limitParam(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}
