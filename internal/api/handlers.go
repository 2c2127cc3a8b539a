package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/yourusername/clever-goals/internal/models"
)

// ParamsSummary is the listing form of one league's fit
type ParamsSummary struct {
	League        string    `json:"league"`
	Teams         int       `json:"n_teams"`
	Matches       int       `json:"n_matches"`
	HomeAdvantage float64   `json:"home_advantage"`
	Rho           float64   `json:"rho"`
	Converged     bool      `json:"converged"`
	FittedAt      time.Time `json:"fitted_at"`
}

// ValueRequest is the body of POST /api/v1/value
type ValueRequest struct {
	Fixtures []models.Fixture `json:"fixtures"`
	Bankroll float64          `json:"bankroll,omitempty"`
	Record   bool             `json:"record,omitempty"`
}

// RefitRequest is the optional body of POST /api/v1/refit
type RefitRequest struct {
	Leagues []string `json:"leagues"`
}

func (s *Server) handleListParams(w http.ResponseWriter, r *http.Request) {
	engine := s.analysis.Engine()
	out := []ParamsSummary{}
	for _, league := range engine.FittedLeagues() {
		p, ok := engine.Fit(league)
		if !ok {
			continue
		}
		out = append(out, ParamsSummary{
			League:        p.League,
			Teams:         p.NTeams,
			Matches:       p.NMatches,
			HomeAdvantage: p.HomeAdvantage,
			Rho:           p.Rho,
			Converged:     p.Converged,
			FittedAt:      p.FittedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	league := mux.Vars(r)["league"]
	p, ok := s.analysis.Engine().Fit(league)
	if !ok {
		writeError(w, http.StatusNotFound, "no parameters for league %s", league)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	league, home, away := q.Get("league"), q.Get("home"), q.Get("away")
	if league == "" || home == "" || away == "" {
		writeError(w, http.StatusBadRequest, "league, home and away are required")
		return
	}

	pred, err := s.analysis.Engine().PredictMatch(league, home, away)
	if errors.Is(err, models.ErrUnknownTeam) {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	bankroll := req.Bankroll
	if bankroll <= 0 {
		bankroll = s.bankroll
	}
	if bankroll <= 0 {
		writeError(w, http.StatusBadRequest, "bankroll must be positive")
		return
	}

	out, err := s.analysis.Analyze(r.Context(), req.Fixtures, bankroll, req.Record)
	if err != nil && out == nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Slate analysed with recording errors")
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	report, err := s.analysis.Calibrate(r.Context(), r.URL.Query().Get("league"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analysis.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefit(w http.ResponseWriter, r *http.Request) {
	var req RefitRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
	}

	report, err := s.analysis.Refit(r.Context(), req.Leagues)
	if report == nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}

	failed := make(map[string]string, len(report.Failed))
	for league, ferr := range report.Failed {
		failed[league] = ferr.Error()
	}
	body := map[string]interface{}{
		"fitted": len(report.Params),
		"failed": failed,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}
