// Package admin serves a small status UI and JSON endpoints for a running mission.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"droneops-scout/internal/grid"
	"droneops-scout/internal/mission"
	"droneops-scout/internal/target"
	"droneops-scout/internal/telemetry"
	"droneops-scout/internal/valuemap"
)

const maxRadius = 50

type Server struct {
	Mission *mission.Mission
	tpl     *template.Template
	log     *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

func NewServer(m *mission.Mission, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"deg": func(rad float64) float64 { return rad * 180 / math.Pi },
	}).ParseFS(content, "templates/index.html"))
	return &Server{Mission: m, tpl: tpl, log: log}
}

// Handler returns the routes of the admin UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /pose", s.handlePose)
	mux.HandleFunc("GET /target", s.handleTarget)
	mux.HandleFunc("GET /grid", s.handleGrid)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin UI listening", "addr", addr)
	return srv.ListenAndServe()
}

type indexData struct {
	ID    string
	Pose  mission.PoseInfo
	State telemetry.MissionStateRow
	Stats valuemap.Stats
	Grid  []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		ID:    s.Mission.ID(),
		Pose:  s.Mission.PoseInfo(),
		State: s.Mission.State(),
		Stats: s.Mission.Stats(),
		Grid:  frameRows(s.Mission.Frame(10)),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index failed", "err", err)
	}
}

func (s *Server) handlePose(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Mission.PoseInfo())
}

type targetResponse struct {
	Best      grid.Cell       `json:"best"`
	BestFound bool            `json:"best_found"`
	BestXCm   float64         `json:"best_x_cm"`
	BestYCm   float64         `json:"best_y_cm"`
	Targets   []target.Target `json:"targets"`
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	f := s.Mission.Frame(0)
	resp := targetResponse{Best: f.Best, BestFound: f.BestFound, Targets: s.Mission.Targets()}
	resp.BestXCm, resp.BestYCm = s.Mission.Grid().CellsToWorld(f.Best.X, f.Best.Y)
	if resp.Targets == nil {
		resp.Targets = []target.Target{}
	}
	s.writeJSON(w, resp)
}

type gridResponse struct {
	mission.GridFrame
	Rows []string `json:"rows"`
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	radius := 10
	if v := r.URL.Query().Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxRadius {
			http.Error(w, "radius must be an integer between 0 and "+strconv.Itoa(maxRadius), http.StatusBadRequest)
			return
		}
		radius = n
	}
	f := s.Mission.Frame(radius)
	s.writeJSON(w, gridResponse{GridFrame: f, Rows: frameRows(f)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"values": s.Mission.Stats(),
		"state":  s.Mission.State(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", "err", err)
	}
}

// frameRows renders the frame as text with +y up and the vehicle as 'V'.
func frameRows(f mission.GridFrame) []string {
	rows := make([]string, 0, len(f.Cells))
	for row := len(f.Cells) - 1; row >= 0; row-- {
		line := make([]rune, 0, len(f.Cells[row]))
		for col, st := range f.Cells[row] {
			if col == f.Radius && row == f.Radius {
				line = append(line, 'V')
				continue
			}
			line = append(line, st.Symbol())
		}
		rows = append(rows, string(line))
	}
	return rows
}
