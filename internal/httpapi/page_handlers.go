package httpapi

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shpitdev/profile-finder/internal/app"
	"github.com/shpitdev/profile-finder/internal/present"
	"github.com/shpitdev/profile-finder/internal/ui"
	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTmpl = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"inc":     func(i int) int { return i + 1 },
	"elapsed": present.ElapsedLabel,
}).ParseFS(templateFS, "templates/index.html.tmpl"))

type PageHandler struct {
	Dispatcher     core.Dispatcher
	Store          *ui.Store
	MaxUploadBytes int64
	Logger         *log.Logger
	Version        string
	Now            func() time.Time
}

type pageData struct {
	State   ui.State
	Grouped bool
	Version string
	MaxMB   int64

	ProcessingText string
}

// Index renders the form and whatever the session currently holds.
// ?layout=flat|grouped switches the table layout of held results.
func (h PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sid := ensureSession(w, r)
	st := h.Store.Get(sid)
	if raw := strings.TrimSpace(r.URL.Query().Get("layout")); raw != "" {
		st = h.Store.Apply(sid, ui.LayoutChanged{Layout: schema.NormalizeLayout(raw)})
	}
	h.render(w, r, http.StatusOK, st)
}

// Submit reads the multipart "file" field and dispatches it. The page is
// re-rendered with the outcome in every case.
func (h PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sid := ensureSession(w, r)
	if cur := h.Store.Get(sid); cur.Phase == ui.PhaseSubmitting {
		h.render(w, r, http.StatusConflict, cur)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			msg := fmt.Sprintf("File too large (limit %d MB)", h.MaxUploadBytes>>20)
			h.reject(w, r, sid, http.StatusRequestEntityTooLarge, &core.ValidationError{Msg: msg})
			return
		}
		h.reject(w, r, sid, http.StatusUnprocessableEntity, &core.ValidationError{Msg: "Please choose a CSV file to upload", Err: err})
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	if raw := strings.TrimSpace(r.FormValue("layout")); raw != "" {
		h.Store.Apply(sid, ui.LayoutChanged{Layout: schema.NormalizeLayout(raw)})
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reject(w, r, sid, http.StatusUnprocessableEntity, &core.ValidationError{Msg: "Please choose a CSV file to upload"})
		return
	}
	defer file.Close()

	if _, err := h.Store.Begin(sid, header.Filename, header.Size, h.Now()); err != nil {
		h.render(w, r, http.StatusConflict, h.Store.Get(sid))
		return
	}

	// Once dispatched the call runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	out, err := app.Submit(ctx, file, h.Dispatcher, app.Options{Logger: h.Logger})
	if err != nil {
		h.fail(w, r, sid, statusFor(err), err)
		return
	}
	h.render(w, r, http.StatusOK, h.Store.Apply(sid, ui.SubmitSucceeded{Outcome: out}))
}

// Reset drops held results and returns to the empty form.
func (h PageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if sid := sessionID(r); sid != "" {
		if err := h.Store.Reset(sid); err != nil {
			h.render(w, r, http.StatusConflict, h.Store.Get(sid))
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reject reports an error raised before this request dispatched anything. A
// submission another request has in flight keeps its state and the caller gets 409.
func (h PageHandler) reject(w http.ResponseWriter, r *http.Request, sid string, status int, err error) {
	h.Logger.Printf(
		"level=warn msg=\"submit rejected\" request_id=%s status=%d error=%q",
		RequestIDFrom(r.Context()), status, app.UserMessage(err),
	)
	st, busy := h.Store.Reject(sid, err)
	if busy != nil {
		status = http.StatusConflict
	}
	h.render(w, r, status, st)
}

// fail records the outcome of the dispatch this request started.
func (h PageHandler) fail(w http.ResponseWriter, r *http.Request, sid string, status int, err error) {
	h.Logger.Printf(
		"level=warn msg=\"submit failed\" request_id=%s status=%d kind=%s error=%q",
		RequestIDFrom(r.Context()), status, app.Classify(err), app.UserMessage(err),
	)
	h.render(w, r, status, h.Store.Apply(sid, ui.SubmitFailed{Err: err}))
}

func (h PageHandler) render(w http.ResponseWriter, r *http.Request, status int, st ui.State) {
	data := pageData{
		State:   st,
		Grouped: st.Layout == schema.LayoutGrouped,
		Version: h.Version,
		MaxMB:   h.MaxUploadBytes >> 20,

		ProcessingText: ui.ProcessingText,
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		h.Logger.Printf("level=error msg=\"render page\" request_id=%s err=%q", RequestIDFrom(r.Context()), err.Error())
		WriteError(w, r, http.StatusInternalServerError, "render_failed", "could not render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func statusFor(err error) int {
	switch app.Classify(err) {
	case app.ErrorKindValidation:
		return http.StatusUnprocessableEntity
	case app.ErrorKindTransport, app.ErrorKindProcessing, app.ErrorKindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
