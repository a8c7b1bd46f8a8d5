package orchestrator

import (
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "strings"

    "github.com/rs/zerolog/log"
    "go.uber.org/multierr"

    "github.com/local/pagecomposer/internal/assembler"
    mpkg "github.com/local/pagecomposer/internal/metrics"
    "github.com/local/pagecomposer/internal/scheduler"
    "github.com/local/pagecomposer/internal/section"
)

const maxPlanBytes = 8 << 20

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("GET /status", o.handleStatus)
    mux.Handle("GET /metrics", mpkg.Handler())

    mux.HandleFunc("POST /sessions", o.handleCreate)
    mux.HandleFunc("GET /sessions/{id}", o.handleGet)
    mux.HandleFunc("DELETE /sessions/{id}", o.handleDelete)
    mux.HandleFunc("POST /sessions/{id}/generate", o.handleGenerateAll)
    mux.HandleFunc("POST /sessions/{id}/sections/{sectionID}/generate", o.handleGenerate)
    mux.HandleFunc("POST /sessions/{id}/sections/{sectionID}/skip", o.handleSkip)
    mux.HandleFunc("PATCH /sessions/{id}/sections/{sectionID}", o.handleEdit)
    mux.HandleFunc("GET /sessions/{id}/document", o.handleDocument)
    mux.HandleFunc("POST /sessions/{id}/save", o.handleSave)
    mux.HandleFunc("GET /pages/{name}", o.handleGetPage)
}

type sessionResp struct {
    SessionID string       `json:"sessionId"`
    Plan      section.Plan `json:"plan"`
    Inflight  []string     `json:"inflight"`
    Auto      []string     `json:"auto,omitempty"`
}

func stateOf(id string, sched *scheduler.Scheduler) sessionResp {
    plan := sched.Plan()
    resp := sessionResp{SessionID: id, Plan: plan, Inflight: sched.Inflight()}
    for _, s := range plan.Sections {
        if sched.IsAuto(s.ID) { resp.Auto = append(resp.Auto, s.ID) }
    }
    return resp
}

type errorResp struct {
    Error     string              `json:"error"`
    Kind      section.FailureKind `json:"kind,omitempty"`
    SectionID string              `json:"sectionId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

// statusFor maps pipeline errors onto HTTP codes. Section failures are
// reported as 422 so clients show the message and offer a retry.
func statusFor(err error) int {
    switch {
    case errors.Is(err, section.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, section.ErrSkipped), errors.Is(err, section.ErrInvalidTransition), errors.Is(err, section.ErrSuperseded):
        return http.StatusConflict
    case section.KindOf(err) != "":
        return http.StatusUnprocessableEntity
    case errors.Is(err, assembler.ErrNoPageName):
        return http.StatusBadRequest
    }
    return http.StatusInternalServerError
}

func writeErr(w http.ResponseWriter, sectionID string, err error) {
    writeJSON(w, statusFor(err), errorResp{Error: err.Error(), Kind: section.KindOf(err), SectionID: sectionID})
}

func (o *Orchestrator) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
    s, ok := o.lookup(r.PathValue("id"))
    if !ok {
        writeJSON(w, http.StatusNotFound, errorResp{Error: "session not found"})
        return nil, false
    }
    return s, true
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
    if o.deps.Status == nil { writeJSON(w, http.StatusOK, map[string]any{"sessions": o.Len()}); return }
    sum := o.deps.Status.Summary(r.Context())
    code := http.StatusOK
    if !sum.OK() { code = http.StatusServiceUnavailable }
    writeJSON(w, code, map[string]any{"status": sum, "sessions": o.Len()})
}

func (o *Orchestrator) handleCreate(w http.ResponseWriter, r *http.Request) {
    defer r.Body.Close()
    var plan section.Plan
    if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlanBytes)).Decode(&plan); err != nil {
        writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()}); return
    }
    id, sched, err := o.Create(r.Context(), plan)
    if err != nil {
        log.Warn().Err(err).Str("page", plan.PageName).Msg("plan rejected")
        writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()}); return
    }
    writeJSON(w, http.StatusCreated, stateOf(id, sched))
}

func (o *Orchestrator) handleGet(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    writeJSON(w, http.StatusOK, stateOf(s.id, s.sched))
}

func (o *Orchestrator) handleDelete(w http.ResponseWriter, r *http.Request) {
    if !o.End(r.PathValue("id")) { writeJSON(w, http.StatusNotFound, errorResp{Error: "session not found"}); return }
    w.WriteHeader(http.StatusNoContent)
}

func (o *Orchestrator) handleGenerate(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    sectionID := r.PathValue("sectionID")
    sec, err := s.sched.Generate(r.Context(), sectionID)
    if err != nil { writeErr(w, sectionID, err); return }
    writeJSON(w, http.StatusOK, sec)
}

type bulkResp struct {
    sessionResp
    Errors []errorResp `json:"errors,omitempty"`
}

func (o *Orchestrator) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    err := s.sched.GenerateAll(r.Context())
    resp := bulkResp{sessionResp: stateOf(s.id, s.sched)}
    for _, e := range multierr.Errors(err) {
        er := errorResp{Error: e.Error(), Kind: section.KindOf(e)}
        var f *section.Failure
        if errors.As(e, &f) { er.SectionID = f.SectionID }
        resp.Errors = append(resp.Errors, er)
    }
    writeJSON(w, http.StatusOK, resp)
}

func (o *Orchestrator) handleSkip(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    sectionID := r.PathValue("sectionID")
    sec, err := s.sched.Skip(sectionID)
    if err != nil { writeErr(w, sectionID, err); return }
    writeJSON(w, http.StatusOK, sec)
}

// editReq carries the fields a user may change. Absent fields are kept.
type editReq struct {
    Label           *string                  `json:"label"`
    Role            *section.Role            `json:"role"`
    Mode            *section.Mode            `json:"mode"`
    DesignRef       *section.DesignRef       `json:"designRef"`
    ClearDesignRef  bool                     `json:"clearDesignRef"`
    ReferenceConfig *section.ReferenceConfig `json:"referenceConfig"`
}

func (e editReq) apply(s *section.Section) {
    if e.Label != nil { s.Label = strings.TrimSpace(*e.Label) }
    if e.Role != nil { s.Role = *e.Role }
    if e.Mode != nil { s.Mode = *e.Mode }
    if e.ClearDesignRef { s.DesignRef = nil }
    if e.DesignRef != nil {
        ref := *e.DesignRef
        ref.ElementIndices = append([]int(nil), e.DesignRef.ElementIndices...)
        s.DesignRef = &ref
    }
    if e.ReferenceConfig != nil {
        rc := *e.ReferenceConfig
        s.ReferenceConfig = &rc
    }
}

func (o *Orchestrator) handleEdit(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    defer r.Body.Close()
    var req editReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()}); return
    }
    sectionID := r.PathValue("sectionID")
    sec, err := s.sched.Edit(sectionID, req.apply)
    if err != nil {
        code := statusFor(err)
        if code == http.StatusInternalServerError { code = http.StatusBadRequest }
        writeJSON(w, code, errorResp{Error: err.Error(), SectionID: sectionID}); return
    }
    writeJSON(w, http.StatusOK, sec)
}

func (o *Orchestrator) handleDocument(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    writeJSON(w, http.StatusOK, assembler.Assemble(s.sched.Sections()))
}

type saveReq struct {
    PageName string `json:"pageName"`
}

type saveResp struct {
    Ack      assembler.Ack      `json:"ack"`
    Document assembler.Document `json:"document"`
}

func (o *Orchestrator) handleSave(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    defer r.Body.Close()
    var req saveReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
        writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()}); return
    }
    plan := s.sched.Plan()
    name := req.PageName
    if strings.TrimSpace(name) == "" { name = plan.PageName }
    if o.deps.Persistence == nil { writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: "persistence unavailable"}); return }
    ack, doc, err := assembler.Save(r.Context(), o.deps.Persistence, name, plan.Sections)
    if err != nil {
        code := statusFor(err)
        if code == http.StatusInternalServerError { code = http.StatusBadGateway }
        writeJSON(w, code, errorResp{Error: err.Error()}); return
    }
    writeJSON(w, http.StatusOK, saveResp{Ack: ack, Document: doc})
}

func (o *Orchestrator) handleGetPage(w http.ResponseWriter, r *http.Request) {
    if o.deps.Pages == nil { writeJSON(w, http.StatusNotImplemented, errorResp{Error: "saved pages cannot be read back from this backend"}); return }
    page, ok, err := o.deps.Pages.GetPage(r.Context(), r.PathValue("name"))
    if err != nil {
        log.Error().Err(err).Str("page", r.PathValue("name")).Msg("failed to load page")
        writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()}); return
    }
    if !ok { writeJSON(w, http.StatusNotFound, errorResp{Error: "page not found"}); return }
    writeJSON(w, http.StatusOK, page)
}
