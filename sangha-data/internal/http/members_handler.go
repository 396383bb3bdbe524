package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"sangha/sangha-common/domain"
	"sangha/sangha-data/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MembersHandler serves member records and their spreadsheet export/import.
type MembersHandler struct {
	members        service.MemberService
	export         service.ExportService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewMembersHandler(members service.MemberService, export service.ExportService, maxUploadBytes int64, logger *zap.Logger) *MembersHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &MembersHandler{members: members, export: export, maxUploadBytes: maxUploadBytes, logger: logger}
}

// GET /api/v1/members?search=
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")
	items, err := h.members.List(r.Context(), term)
	if err != nil {
		h.logger.Error("List members failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

// GET /api/v1/members/draft
func (h *MembersHandler) Draft(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.members.Draft()))
}

// GET /api/v1/members/snapshot
func (h *MembersHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.members.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("Snapshot failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(snap))
}

// POST /api/v1/members
func (h *MembersHandler) Save(w http.ResponseWriter, r *http.Request) {
	var m domain.Member
	if err := readBodyJSON(r, maxJSONBody, &m); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(fmt.Sprintf("invalid member: %v", err)))
		return
	}
	saved, err := h.members.Save(r.Context(), m)
	if err != nil {
		h.logger.Error("Save member failed", zap.String("member_id", m.ID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(saved))
}

// GET /api/v1/members/{id}
func (h *MembersHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

// PUT /api/v1/members/{id}
func (h *MembersHandler) Replace(w http.ResponseWriter, r *http.Request, id string) {
	var m domain.Member
	if err := readBodyJSON(r, maxJSONBody, &m); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(fmt.Sprintf("invalid member: %v", err)))
		return
	}
	saved, err := h.members.Replace(r.Context(), id, m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(saved))
}

// PATCH /api/v1/members/{id}
// body: {"group": "status", "target": "moveOut", "value": {"monk": 2, "novice": 1}}
func (h *MembersHandler) Edit(w http.ResponseWriter, r *http.Request, id string) {
	body, err := readBody(r, maxJSONBody)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	edit, err := domain.DecodeEdit(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	m, err := h.members.Edit(r.Context(), id, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

// DELETE /api/v1/members/{id}
func (h *MembersHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.members.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

// GET /api/v1/members/export?search=
func (h *MembersHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.export.Export(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("Export failed", zap.Error(err))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// POST /api/v1/members/import[?commit=true]
// multipart form, file field "file"
func (h *MembersHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to parse form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("file not found in request"))
		return
	}
	defer file.Close()

	commit, _ := strconv.ParseBool(r.URL.Query().Get("commit"))
	result, err := h.export.Import(r.Context(), file, commit)
	if err != nil {
		h.logger.Warn("Import failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}
