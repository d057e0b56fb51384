package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hyperengineering/questboard/internal/airtable"
	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/hyperengineering/questboard/internal/config"
	"github.com/hyperengineering/questboard/internal/types"
	"github.com/hyperengineering/questboard/internal/validation"
)

// maxBodyBytes bounds request bodies; the largest legitimate body is a note.
const maxBodyBytes = 64 << 10

// RecordAPI is the part of the Airtable client the handlers use.
type RecordAPI interface {
	CreateRecords(ctx context.Context, table string, records []airtable.Fields) (*airtable.Response, error)
	ListRecords(ctx context.Context, table string, opts airtable.ListOptions) ([]airtable.Record, error)
	GetRecord(ctx context.Context, table, id string) (*airtable.Record, error)
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

// Handler implements the API handlers
type Handler struct {
	records RecordAPI
	cfg     config.AirtableConfig
	limiter *RateLimiter
	version string
}

// NewHandler creates a Handler. limiter guards players-update.
func NewHandler(records RecordAPI, cfg config.AirtableConfig, limiter *RateLimiter, version string) *Handler {
	return &Handler{
		records: records,
		cfg:     cfg,
		limiter: limiter,
		version: version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

// LogActivity handles POST /functions/airtable: one activity record per call.
// Airtable's status and body are passed through unchanged.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured() {
		writeText(w, http.StatusInternalServerError, "Missing Airtable env vars")
		return
	}

	var ev types.ActivityEvent
	if err := decodeBody(w, r, &ev); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if errs := validation.ValidateActivityEvent(ev); len(errs) > 0 {
		writeText(w, http.StatusBadRequest, "Invalid fields: "+fieldList(errs))
		return
	}

	resp, err := h.records.CreateRecords(r.Context(), h.cfg.ActivityTable, []airtable.Fields{activityFields(ev)})
	if err != nil {
		slog.Error("activity record create failed", "error", err, "type", ev.Type)
		writeText(w, http.StatusInternalServerError, "Upstream request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// activityFields maps an event onto the activity table's columns. Section
// events have no task, so the section title fills the task title column.
func activityFields(ev types.ActivityEvent) airtable.Fields {
	title := ev.TaskTitle
	if title == "" {
		title = ev.SectionTitle
	}
	note := ""
	if ev.Note != nil {
		note = *ev.Note
	}
	return airtable.Fields{
		"Task ID":       ev.TaskID,
		"Task Title":    title,
		"Subtask ID":    ev.SubtaskID,
		"Subtask Title": ev.SubtaskTitle,
		"Type":          string(ev.Type),
		"Completed":     ev.Completed != nil && *ev.Completed,
		"Note":          note,
		"Player":        ev.Player,
		"Day Of Week":   ev.DayOfWeek,
		"Date ISO":      ev.DateISO,
	}
}

// ListPlayers handles GET /functions/players.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured() {
		writeText(w, http.StatusInternalServerError, "Missing Airtable env vars")
		return
	}

	if r.URL.Query().Get("debug") == "1" {
		writeJSON(w, http.StatusOK, types.PlayersDebugResponse{
			HasAPIKey:   h.cfg.Token != "",
			HasBaseID:   h.cfg.BaseID != "",
			BaseID:      h.cfg.BaseID,
			TableName:   h.cfg.PlayersTable,
			ViewName:    h.cfg.PlayersView,
			NameField:   h.cfg.NameField,
			StatusField: h.cfg.StatusField,
		})
		return
	}

	records, err := h.records.ListRecords(r.Context(), h.cfg.PlayersTable, airtable.ListOptions{
		View:     h.cfg.PlayersView,
		Fields:   []string{h.cfg.NameField, h.cfg.StatusField},
		PageSize: airtable.MaxPageSize,
	})
	var apiErr *airtable.APIError
	switch {
	case errors.As(err, &apiErr):
		slog.Warn("players list rejected by airtable", "airtable_status", apiErr.Status)
		writeJSON(w, apiErr.Status, types.UpstreamErrorResponse{
			Message:        "Failed to read players from Airtable.",
			AirtableStatus: apiErr.Status,
			AirtableError:  apiErr.Decoded(),
		})
		return
	case err != nil:
		slog.Error("players list failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Upstream request failed")
		return
	}

	players := make([]types.Player, 0, len(records))
	for _, rec := range records {
		name, ok := rec.String(h.cfg.NameField)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		status, _ := rec.String(h.cfg.StatusField)
		if status == "" {
			status = string(types.StatusActive)
		}
		players = append(players, types.Player{ID: rec.ID, Name: name, Status: types.PlayerStatus(status)})
	}

	writeJSON(w, http.StatusOK, types.PlayersResponse{Players: players})
}

// VerifyPlayer handles POST /functions/players-verify. Every error body is
// {"message": ...}.
func (h *Handler) VerifyPlayer(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured() {
		writeMessage(w, http.StatusInternalServerError, "Missing Airtable configuration.")
		return
	}

	var req types.VerifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	if errs := validation.ValidateVerifyRequest(req); len(errs) > 0 {
		writeMessage(w, http.StatusBadRequest, "Missing fields.")
		return
	}

	if status, msg := h.checkPassword(r.Context(), req.PlayerID, req.Password); status != 0 {
		writeMessage(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, types.VerifyResponse{OK: true})
}

// UpdatePlayerStatus handles POST /functions/players-update. The password is
// checked again on every call; an earlier verify is not trusted. The read and
// the patch are not atomic, so concurrent toggles can lose an update.
func (h *Handler) UpdatePlayerStatus(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured() {
		writeText(w, http.StatusInternalServerError, "Missing Airtable env vars")
		return
	}

	var req types.UpdateStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if errs := validation.ValidateUpdateStatusRequest(req); len(errs) > 0 {
		writeText(w, http.StatusBadRequest, "Missing fields")
		return
	}

	if status, msg := h.checkPassword(r.Context(), req.PlayerID, req.Password); status != 0 {
		writeText(w, status, msg)
		return
	}

	updated, err := h.records.UpdateRecord(r.Context(), h.cfg.PlayersTable, req.PlayerID,
		airtable.Fields{h.cfg.StatusField: string(req.DesiredStatus)})
	if err != nil {
		slog.Error("player status update failed", "error", err, "player_id", req.PlayerID)
		writeText(w, http.StatusInternalServerError, "Update failed")
		return
	}

	status, _ := updated.String(h.cfg.StatusField)
	if status == "" {
		status = string(req.DesiredStatus)
	}
	slog.Info("player status updated", "player_id", req.PlayerID, "status", status)
	writeJSON(w, http.StatusOK, types.UpdateStatusResponse{Status: types.PlayerStatus(status)})
}

// checkPassword loads the player record and compares password with its
// stored hash. It returns 0 on success, else the status and a short message.
func (h *Handler) checkPassword(ctx context.Context, playerID, password string) (int, string) {
	rec, err := h.records.GetRecord(ctx, h.cfg.PlayersTable, playerID)
	var apiErr *airtable.APIError
	switch {
	case errors.Is(err, airtable.ErrNotFound), errors.As(err, &apiErr):
		return http.StatusNotFound, "Player not found."
	case err != nil:
		slog.Error("player lookup failed", "error", err, "player_id", playerID)
		return http.StatusInternalServerError, "Player lookup failed."
	}

	hash, _ := rec.String(h.cfg.PasswordField)
	switch err := auth.CheckPassword(hash, password); {
	case errors.Is(err, auth.ErrMissingHash):
		return http.StatusForbidden, "Password hash missing."
	case err != nil:
		slog.Warn("player password rejected", "player_id", playerID)
		return http.StatusUnauthorized, "Invalid password."
	}
	return 0, ""
}

// decodeBody reads a JSON body. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func fieldList(errs []validation.ValidationError) string {
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	return strings.Join(fields, ", ")
}
