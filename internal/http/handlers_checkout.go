package http

import (
	"net/http"
)

func (s *Server) checkoutView() checkoutView {
	return newCheckoutView(s.flow.Snapshot())
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.checkoutView())
}

func (s *Server) handleOpenForm(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.OpenForm(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, s.checkoutView())
}

func (s *Server) handleSubmitShipping(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.flow.SubmitForm(ParseSubmission(p)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, s.checkoutView())
}

func (s *Server) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payment, err := ParsePaymentFields(p).Payment()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.flow.SelectPayment(payment); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, s.checkoutView())
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	summary, err := s.flow.Confirm(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newConfirmationView(&summary))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.Cancel(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, s.checkoutView())
}

func (s *Server) handleGetConfirmation(w http.ResponseWriter, r *http.Request) {
	conf, err := s.flow.Confirmation()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newConfirmationView(conf.Summary))
}

// handleFinish clears the cart and returns the emptied cart view.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	conf, err := s.flow.Confirmation()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	conf.Finish()
	s.respond(w, r, http.StatusOK, s.cartView())
}
