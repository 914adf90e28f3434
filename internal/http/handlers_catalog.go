package http

import (
	"net/http"

	"expensecart/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, expensesView{Expenses: items, Categories: core.Categories()})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := ParseExpenseInput(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.catalog.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cart.SetDialogOpen(false)
	s.respond(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := ParseExpenseInput(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.catalog.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cart.SetDialogOpen(false)
	s.respond(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, deletedView{ID: id, Cart: s.cartView()})
}
