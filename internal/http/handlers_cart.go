package http

import (
	"net/http"

	"expensecart/internal/core"
)

func (s *Server) cartView() cartView {
	lines := s.cart.Lines()
	return cartView{
		Lines:      newLineViews(lines),
		Totals:     newTotalsView(s.flow.Totals()),
		DialogOpen: s.cart.DialogOpen(),
		Loading:    s.cart.Loading(),
	}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.cartView())
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.cart.ClearCart()
	s.respond(w, r, http.StatusOK, s.cartView())
}

// handleAddToCart resolves the id against the catalog so the line captures
// the current expense fields.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := p.Get("id")
	if id == "" {
		s.fail(w, r, core.ErrEmptyID)
		return
	}
	e, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cart.AddToCart(r.Context(), e)
	s.respond(w, r, http.StatusOK, s.cartView())
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	s.cart.IncrementQuantity(r.PathValue("id"))
	s.respond(w, r, http.StatusOK, s.cartView())
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	s.cart.DecrementQuantity(r.PathValue("id"))
	s.respond(w, r, http.StatusOK, s.cartView())
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.cart.RemoveFromCart(r.Context(), r.PathValue("id"))
	s.respond(w, r, http.StatusOK, s.cartView())
}

func (s *Server) handleSetDialog(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	open, err := p.GetBool("open")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cart.SetDialogOpen(open)
	s.respond(w, r, http.StatusOK, s.cartView())
}
