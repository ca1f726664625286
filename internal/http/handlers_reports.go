package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/report"
)

const maxTrailingMonths = 24

var errRequired = errors.New("is required")

// refDate reads the optional ?ref=YYYY-MM-DD reference day, defaulting to the
// session's today.
func (s *Server) refDate(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("ref"))
	if v == "" {
		return s.session.Today(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid("ref", core.ErrInvalidDay)
	}
	return d, nil
}

// dashboard builds the dashboard for today. Results are cached per ledger
// revision and day, so any committed mutation invalidates them.
func (s *Server) dashboard() (report.Dashboard, bool, error) {
	today := s.session.Today()
	build := func() (report.Dashboard, error) {
		return report.Build(s.session.View(), today), nil
	}
	if s.dashboards == nil {
		d, err := build()
		return d, false, err
	}
	key := strconv.FormatUint(s.session.Revision(), 10) + "|" + today.String()
	return s.dashboards.Get(key, build)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, cached, err := s.dashboard()
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	if cached {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache hit")
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleTrailing(w http.ResponseWriter, r *http.Request) {
	n, err := ParseIntQuery(r.URL.Query(), "months", report.TrailingMonthCount, 1, maxTrailingMonths)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	ref, err := s.refDate(r)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, report.TrailingMonths(s.session.Transactions(), n, ref))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	ref, err := s.refDate(r)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	st := s.session.View()
	writeJSON(w, http.StatusOK, report.CategoryBreakdown(st.Transactions.List(), report.CategoryLookup(st), ref))
}

type settingsResponse struct {
	User     core.User `json:"user"`
	DarkMode bool      `json:"darkMode"`
	Symbol   string    `json:"symbol"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	u := s.session.User()
	writeJSON(w, http.StatusOK, settingsResponse{
		User:     u,
		DarkMode: s.session.DarkMode(),
		Symbol:   core.CurrencySymbol(u.Currency),
	})
}

type darkModeRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleDarkMode(w http.ResponseWriter, r *http.Request) {
	var req darkModeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if req.Enabled == nil {
		s.fail(w, r, log.OpUpdate, core.Invalid("enabled", errRequired))
		return
	}
	if err := s.session.SetDarkMode(r.Context(), *req.Enabled); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": *req.Enabled})
}

// handleVerify reports balance discrepancies and budget drift. A failed
// balance check answers 409 so monitoring can alert on it.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	rep := s.session.Verify()
	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusConflict
		log.FromContext(r.Context()).WarnContext(r.Context(), "Balance invariant violated",
			log.FieldOperation, log.OpVerify,
			"discrepancies", len(rep.Balances))
	}
	writeJSON(w, status, map[string]any{
		"ok":       rep.OK(),
		"balances": nonNil(rep.Balances),
		"budgets":  nonNil(rep.Budgets),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
