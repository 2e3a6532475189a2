package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
)

const eventsPath = "/events"

func (h *Handler) EventsList(w http.ResponseWriter, r *http.Request) {
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	list, err := store.Events().List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "events_list.html", map[string]any{
		"Title":  "Events",
		"Events": list,
	})
}

func (h *Handler) EventsNewForm(w http.ResponseWriter, r *http.Request) {
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.renderEventForm(w, r, store, http.StatusOK, "New event", "/events/new", events.Input{}, "")
}

func (h *Handler) EventsCreate(w http.ResponseWriter, r *http.Request) {
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		fail(w, r, errors.Join(events.ErrBadRequest, err))
		return
	}

	input, err := events.ParseInput(r.PostForm)
	if err != nil {
		h.rejectEventForm(w, r, store, "New event", "/events/new", err)
		return
	}

	id, err := store.Events().Create(r.Context(), input)
	if err != nil {
		fail(w, r, err)
		return
	}
	middleware.LoggerFromContext(r.Context()).Info().Int64("event_id", id).Msg("event created")
	h.record(r, "event.create", "event", id)
	http.Redirect(w, r, eventsPath, http.StatusFound)
}

func (h *Handler) EventsEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID(r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	event, err := store.Events().Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	form := events.Input{
		VenueID:  event.VenueID,
		Title:    event.Title,
		StartsAt: event.StartsAt,
		EndsAt:   event.EndsAt,
		Status:   event.Status,
	}
	h.renderEventForm(w, r, store, http.StatusOK, "Edit event", editPath(id), form, "")
}

func (h *Handler) EventsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID(r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := store.Events().Get(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		fail(w, r, errors.Join(events.ErrBadRequest, err))
		return
	}

	input, err := events.ParseInput(r.PostForm)
	if err != nil {
		h.rejectEventForm(w, r, store, "Edit event", editPath(id), err)
		return
	}
	if err := store.Events().Update(r.Context(), id, input); err != nil {
		fail(w, r, err)
		return
	}
	middleware.LoggerFromContext(r.Context()).Info().Int64("event_id", id).Msg("event updated")
	h.record(r, "event.update", "event", id)
	http.Redirect(w, r, eventsPath, http.StatusFound)
}

// EventsDelete removes the event. Unknown ids are not an error.
func (h *Handler) EventsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID(r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := store.Events().Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	middleware.LoggerFromContext(r.Context()).Info().Int64("event_id", id).Msg("event deleted")
	h.record(r, "event.delete", "event", id)
	http.Redirect(w, r, eventsPath, http.StatusFound)
}

// rejectEventForm re-renders the form with a 400 when the submission does
// not validate, keeping what the user typed.
func (h *Handler) rejectEventForm(w http.ResponseWriter, r *http.Request, store storage.Store, title, action string, err error) {
	var verr *events.ValidationError
	if !errors.As(err, &verr) {
		fail(w, r, err)
		return
	}
	middleware.LoggerFromContext(r.Context()).Warn().
		Strs("missing", verr.Missing).
		Strs("invalid", verr.Invalid).
		Msg("event form rejected")
	h.renderEventForm(w, r, store, http.StatusBadRequest, title, action, submitted(r.PostForm), describe(verr))
}

func (h *Handler) renderEventForm(w http.ResponseWriter, r *http.Request, store storage.Store, status int, title, action string, form events.Input, errMsg string) {
	venueList, err := store.Venues().List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	h.render(w, r, status, "event_form.html", map[string]any{
		"Title":  title,
		"Action": action,
		"Venues": venueList,
		"Form":   form,
		"Error":  errMsg,
	})
}

// submitted echoes raw form values back into the form.
func submitted(values url.Values) events.Input {
	venueID, _ := strconv.ParseInt(strings.TrimSpace(values.Get("venue_id")), 10, 64)
	return events.Input{
		VenueID:  venueID,
		Title:    values.Get("title"),
		StartsAt: values.Get("starts_at"),
		EndsAt:   values.Get("ends_at"),
		Status:   values.Get("status"),
	}
}

var fieldLabels = map[string]string{
	"venue_id":  "venue",
	"title":     "title",
	"starts_at": "start",
	"ends_at":   "end",
	"status":    "status",
}

func describe(verr *events.ValidationError) string {
	var parts []string
	if len(verr.Missing) > 0 {
		parts = append(parts, "Please fill in: "+labels(verr.Missing)+".")
	}
	if len(verr.Invalid) > 0 {
		parts = append(parts, "Please correct: "+labels(verr.Invalid)+".")
	}
	return strings.Join(parts, " ")
}

func labels(fields []string) string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if label, ok := fieldLabels[f]; ok {
			out = append(out, label)
		} else {
			out = append(out, f)
		}
	}
	return strings.Join(out, ", ")
}

func editPath(id int64) string {
	return "/events/" + strconv.FormatInt(id, 10) + "/edit"
}
