package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"silicon-lab-service/internal/app"
	"silicon-lab-service/internal/domain"
	"go.uber.org/zap"
)

// TeacherHandler serves the classroom-management endpoints: create/list
// classrooms, view rosters, export results as CSV, and the full wipe.
type TeacherHandler struct {
	service *app.GameService
	logger  *zap.Logger
}

func NewTeacherHandler(service *app.GameService, logger *zap.Logger) *TeacherHandler {
	return &TeacherHandler{service: service, logger: logger}
}

// Register wires the teacher routes onto the mux.
func (h *TeacherHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/classrooms", h.CreateClassroom)
	mux.HandleFunc("GET /api/classrooms", h.ListClassrooms)
	mux.HandleFunc("GET /api/classrooms/{code}/roster", h.Roster)
	mux.HandleFunc("GET /api/classrooms/{code}/roster.csv", h.RosterCSV)
	mux.HandleFunc("POST /api/admin/wipe", h.Wipe)
}

type createClassroomRequest struct {
	Name          string         `json:"className"`
	ValidHours    int            `json:"validHours"`
	InitialPoints int            `json:"initialPoints"`
	Reward        *domain.Reward `json:"reward"`
}

func (h *TeacherHandler) CreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req createClassroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "className is required")
		return
	}
	if req.ValidHours <= 0 {
		req.ValidHours = 4
	}
	if req.InitialPoints < 0 {
		h.writeError(w, http.StatusBadRequest, "initialPoints must not be negative")
		return
	}

	classroom, err := h.service.CreateClassroom(r.Context(), req.Name, time.Duration(req.ValidHours)*time.Hour, req.InitialPoints, req.Reward)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, classroom)
}

func (h *TeacherHandler) ListClassrooms(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.service.Classrooms(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if classrooms == nil {
		classrooms = []domain.Classroom{}
	}
	h.writeJSON(w, http.StatusOK, classrooms)
}

func (h *TeacherHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.service.Roster(r.Context(), r.PathValue("code"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	sortField := r.URL.Query().Get("sort")
	if sortField == "" {
		sortField = "points"
	}
	app.SortRoster(roster, sortField, r.URL.Query().Get("order") != "asc")
	if roster == nil {
		roster = []domain.StudentResult{}
	}
	h.writeJSON(w, http.StatusOK, roster)
}

func (h *TeacherHandler) RosterCSV(w http.ResponseWriter, r *http.Request) {
	code := app.NormalizeCode(r.PathValue("code"))
	roster, err := h.service.Roster(r.Context(), code)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	app.SortRoster(roster, "points", true)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", code+"_results.csv"))
	if err := app.WriteRosterCSV(w, roster); err != nil {
		if errors.Is(err, domain.ErrEmptyRoster) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("roster csv export failed", zap.String("code", code), zap.Error(err))
	}
}

func (h *TeacherHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Wipe(r.Context()); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeacherHandler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrClassroomNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrClassroomExpired):
		h.writeError(w, http.StatusGone, err.Error())
	default:
		h.logger.Error("teacher endpoint failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *TeacherHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("response encode failed", zap.Error(err))
	}
}

func (h *TeacherHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
