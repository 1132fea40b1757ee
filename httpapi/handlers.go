package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/samber/mo"

	"github.com/lfroes/jarvis/ical"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
	"github.com/lfroes/jarvis/tasks"
)

func (r *Router) handleCreateTask(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	var body taskRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	input := tasks.CreateInput{
		Title:   body.Title,
		Notes:   body.Notes,
		DueDate: mo.PointerToOption(body.DueDate),
	}
	if body.Recurrence != nil {
		rule := body.Recurrence.toRule()
		if err := rule.Validate(); err != nil {
			r.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.Recurrence = mo.Some(rule)
	} else if body.RecurrenceText != "" {
		input.Recurrence = recurrence.Normalize(body.RecurrenceText)
	}
	if body.ProjectID != nil {
		input.ProjectID = mo.Some(*body.ProjectID)
	}

	task, err := r.service.Create(req.Context(), userID, input)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusCreated, taskToJSON(*task, time.Now()))
}

func (r *Router) handleCreateParsed(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	var body parsedRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := r.service.CreateFromParsed(req.Context(), userID, tasks.ParsedTask{
		Title:                 body.Title,
		DueDate:               mo.PointerToOption(body.DueDate),
		RecurrenceDescription: body.RecurrenceDescription,
	})
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusCreated, taskToJSON(*task, time.Now()))
}

func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	task, err := r.service.Get(req.Context(), userID, req.PathValue("id"))
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, taskToJSON(*task, time.Now()))
}

func (r *Router) handleUpdateTask(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	task, err := r.service.Get(req.Context(), userID, req.PathValue("id"))
	if err != nil {
		r.writeStoreError(w, err)
		return
	}

	var body taskRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task.Title = body.Title
	task.Notes = body.Notes
	task.DueDate = mo.PointerToOption(body.DueDate)
	task.ProjectID = mo.PointerToOption(body.ProjectID)
	switch {
	case body.Recurrence != nil:
		rule := body.Recurrence.toRule()
		if err := rule.Validate(); err != nil {
			r.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		task.Recurrence = mo.Some(rule)
	case body.RecurrenceText != "":
		task.Recurrence = recurrence.Normalize(body.RecurrenceText)
	default:
		task.Recurrence = mo.None[recurrence.Rule]()
	}

	if err := r.service.Update(req.Context(), task); err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, taskToJSON(*task, time.Now()))
}

func (r *Router) handleDeleteTask(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	if err := r.service.Delete(req.Context(), userID, req.PathValue("id")); err != nil {
		r.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleComplete(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	now := time.Now()
	result, err := r.service.Complete(req.Context(), userID, req.PathValue("id"), now)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}

	out := completionJSON{Task: taskToJSON(*result.Task, now), NextDue: optPtr(result.NextDue)}
	if result.Occurrence != nil {
		occ := taskToJSON(*result.Occurrence, now)
		out.Occurrence = &occ
	}
	r.writeJSON(w, http.StatusOK, out)
}

func (r *Router) handleUncomplete(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	task, err := r.service.Uncomplete(req.Context(), userID, req.PathValue("id"))
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, taskToJSON(*task, time.Now()))
}

func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	history, err := r.service.History(req.Context(), userID, req.PathValue("id"))
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	now := time.Now()
	out := make([]taskJSON, 0, len(history))
	for _, t := range history {
		out = append(out, taskToJSON(t, now))
	}
	r.writeJSON(w, http.StatusOK, out)
}

func (r *Router) handleUpcoming(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	now := time.Now()
	start, end, err := parseWindow(req, now)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := r.service.Upcoming(req.Context(), userID, start, end, now)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, daysToJSON(days, now))
}

func (r *Router) handleUpcomingICS(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	now := time.Now()
	start, end, err := parseWindow(req, now)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := r.service.Upcoming(req.Context(), userID, start, end, now)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	feed, err := ical.ScheduleToICS(days)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	w.Header().Set(HeaderContentType, MimeTypeCalendar)
	if _, err := w.Write([]byte(feed)); err != nil {
		r.logger.Error("failed to write calendar feed", "error", err)
	}
}

func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	now := time.Now()
	start, end, err := parseWindow(req, now)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := r.service.Upcoming(req.Context(), userID, start, end, now)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	var entries []storage.Task
	for _, d := range days {
		entries = append(entries, d.Entries...)
	}
	r.writeJSON(w, http.StatusOK, tasks.Summarize(entries, now))
}

func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	projects, err := r.service.ListProjects(req.Context(), userID)
	if err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, projects)
}

func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	var body projectRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	project := &storage.Project{UserID: userID, Name: body.Name, Color: body.Color}
	if err := r.service.CreateProject(req.Context(), project); err != nil {
		r.writeStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusCreated, project)
}

func (r *Router) handleDeleteProject(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.userID(w, req)
	if !ok {
		return
	}
	if err := r.service.DeleteProject(req.Context(), userID, req.PathValue("id")); err != nil {
		r.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseWindow reads the inclusive start/end query parameters, defaulting to
// the month around now.
func parseWindow(req *http.Request, now time.Time) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)

	if raw := req.URL.Query().Get("start"); raw != "" {
		parsed, err := time.ParseInLocation(layout, raw, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start date, want YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := req.URL.Query().Get("end"); raw != "" {
		parsed, err := time.ParseInLocation(layout, raw, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end date, want YYYY-MM-DD")
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end date before start date")
	}
	return start, end, nil
}

// writeStoreError maps storage sentinel errors onto HTTP statuses.
func (r *Router) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidInput):
		r.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrConflict):
		r.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrStorageUnavailable):
		r.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		r.logger.Error("internal error", "error", err)
		r.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
