package http

import (
	"net/http"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Accounts())
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := DecodeJSON(w, r, &a); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	created, err := s.session.CreateAccount(r.Context(), a)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := DecodeJSON(w, r, &a); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	a.ID = pathID(r)
	updated, err := s.session.UpdateAccount(r.Context(), a)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteAccount(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.session.Categories()
	if t := core.EntryType(sanitizeInput(r.URL.Query().Get("type"))); t != "" {
		if !t.Valid() {
			s.fail(w, r, log.OpList, core.Invalid("type", core.ErrInvalidType))
			return
		}
		filtered := cats[:0]
		for _, c := range cats {
			if c.Type == t {
				filtered = append(filtered, c)
			}
		}
		cats = filtered
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := DecodeJSON(w, r, &c); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	created, err := s.session.CreateCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := DecodeJSON(w, r, &c); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	c.ID = pathID(r)
	updated, err := s.session.UpdateCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCategory returns what the cascade did to transactions and
// budgets.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	cascade, err := s.session.DeleteCategory(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if cascade.RemovedBudgets == nil {
		cascade.RemovedBudgets = []string{}
	}
	writeJSON(w, http.StatusOK, cascade)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := ParseFilter(r.URL.Query()).Apply(s.session.Transactions(), s.session.Today())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.session.Transaction(pathID(r))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := DecodeJSON(w, r, &tx); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	created, err := s.session.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := DecodeJSON(w, r, &tx); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tx.ID = pathID(r)
	updated, err := s.session.UpdateTransaction(r.Context(), tx)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteTransaction(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Budgets())
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := DecodeJSON(w, r, &b); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	created, err := s.session.CreateBudget(r.Context(), b)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := DecodeJSON(w, r, &b); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	b.ID = pathID(r)
	updated, err := s.session.UpdateBudget(r.Context(), b)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteBudget(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Goals())
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := DecodeJSON(w, r, &g); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	created, err := s.session.CreateGoal(r.Context(), g)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := DecodeJSON(w, r, &g); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	g.ID = pathID(r)
	updated, err := s.session.UpdateGoal(r.Context(), g)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteGoal(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
