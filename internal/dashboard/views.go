package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"darkroom/internal/logging"
	"darkroom/internal/queue"
)

const adminTemplateText = `<!doctype html>
<title>Darkroom Queue</title>
<h2>Queue ({{ .Size }}/{{ .Capacity }})</h2>
<ul>
{{ range .Items }}
<li><b>{{ .DisplayName }}</b> - {{ .Kind }} - <i>{{ .Status }}</i><br>
submitted {{ .Age }}{{ if .DownloadURL }}<br>
<a href="{{ .DownloadURL }}" target="_blank">Download</a>{{ end }}<br>
<i>{{ .Caption }}</i></li><hr>
{{ end }}
</ul>
<form action="/reset" method="post">
<input type="hidden" name="token" value="{{ .Token }}">
<button>Reset Queue</button>
</form>`

const publicTemplateText = `<!doctype html>
<title>Queue Status</title>
<h2>Current Queue ({{ len .Items }})</h2>
<table border="1" cellspacing="0" cellpadding="5">
<tr><th>#</th><th>User</th><th>Status</th><th>Expected Delivery</th></tr>
{{ range .Items }}
<tr><td>{{ .Position }}</td><td>{{ .DisplayName }}</td><td>{{ .Status }}</td><td>{{ .Expected }}</td></tr>
{{ end }}
</table>`

var (
	adminTemplate  = template.Must(template.New("admin").Parse(adminTemplateText))
	publicTemplate = template.Must(template.New("public").Parse(publicTemplateText))
)

type adminItem struct {
	DisplayName string
	Kind        queue.Kind
	Status      queue.Status
	Caption     string
	Age         string
	DownloadURL string
}

type publicItem struct {
	Position    int
	DisplayName string
	Status      queue.Status
	Expected    string
}

func (s *Server) handleAdminView(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records := s.engine.List()
	items := make([]adminItem, 0, len(records))
	for _, rec := range records {
		item := adminItem{
			DisplayName: rec.DisplayName,
			Kind:        rec.Kind,
			Status:      rec.Status,
			Caption:     rec.Caption,
			Age:         humanize.Time(rec.SubmittedAt),
		}
		if s.files != nil && rec.Kind == queue.KindPhoto {
			url, err := s.files.FileURL(r.Context(), rec.PayloadRef)
			if err != nil {
				s.logger.Debug("resolve payload", logging.Error(err))
			} else {
				item.DownloadURL = url
			}
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := adminTemplate.Execute(w, map[string]any{
		"Items":    items,
		"Size":     len(records),
		"Capacity": s.engine.Capacity(),
		"Token":    s.cfg.Dashboard.AdminToken,
	})
	if err != nil {
		s.logger.Error("render admin view", logging.Error(err))
	}
}

func (s *Server) handlePublicView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := publicTemplate.Execute(w, map[string]any{"Items": s.publicItems()}); err != nil {
		s.logger.Error("render public view", logging.Error(err))
	}
}

func (s *Server) publicItems() []publicItem {
	sla := time.Duration(s.cfg.Queue.SLAHours) * time.Hour
	records := s.engine.List()
	items := make([]publicItem, 0, len(records))
	for i, rec := range records {
		expected := "Unknown"
		if !rec.SubmittedAt.IsZero() {
			expected = rec.SubmittedAt.Add(sla).Format("Jan 02, 3:04 PM")
		}
		items = append(items, publicItem{
			Position:    i + 1,
			DisplayName: rec.DisplayName,
			Status:      rec.Status,
			Expected:    expected,
		})
	}
	return items
}

// apiRecord is the JSON form of a record served to the CLI. It matches
// the snapshot wire contract.
type apiRecord struct {
	RequesterID int64  `json:"requesterId"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	PayloadRef  string `json:"payloadRef"`
	Caption     string `json:"caption"`
	SubmittedAt string `json:"submittedAt"`
}

type queueResponse struct {
	Capacity int         `json:"capacity"`
	Size     int         `json:"size"`
	Items    []apiRecord `json:"items"`
}

func (s *Server) handleAPIQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records := s.engine.List()
	items := make([]apiRecord, 0, len(records))
	for _, rec := range records {
		items = append(items, apiRecord{
			RequesterID: rec.RequesterID,
			DisplayName: rec.DisplayName,
			Status:      string(rec.Status),
			Kind:        string(rec.Kind),
			PayloadRef:  rec.PayloadRef,
			Caption:     rec.Caption,
			SubmittedAt: rec.SubmittedAt.Format(queue.TimeLayout),
		})
	}
	s.writeJSON(w, http.StatusOK, queueResponse{
		Capacity: s.engine.Capacity(),
		Size:     len(records),
		Items:    items,
	})
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": s.publicItems()})
}

type journalEvent struct {
	EventID     string `json:"eventId"`
	Action      string `json:"action"`
	RequesterID int64  `json:"requesterId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Detail      string `json:"detail,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func (s *Server) handleAPIJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"events": []journalEvent{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]journalEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, journalEvent{
			EventID:     evt.EventID,
			Action:      string(evt.Action),
			RequesterID: evt.RequesterID,
			DisplayName: evt.DisplayName,
			Detail:      evt.Detail,
			CreatedAt:   evt.CreatedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
