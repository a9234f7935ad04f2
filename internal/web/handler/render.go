package handler

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/web/middleware"
	"github.com/LBIT2016/trading-gamers/internal/web/templates/layout"
	"github.com/LBIT2016/trading-gamers/internal/web/templates/pages"
)

// pageData collects the layout fields every page shares
func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title: title,
		User:  middleware.GetUser(r.Context()),
		Flash: middleware.GetFlash(r.Context()),
	}
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := pages.ErrorData{
		PageData: pageData(r, "Error"),
		Status:   status,
		Message:  message,
	}
	renderPage(w, r, status, pages.Error(data))
}

// renderError shows an error page for a store error
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	switch {
	case errors.Is(err, model.ErrListingNotFound):
		status, message = http.StatusNotFound, "Listing not found"
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, model.ErrValidationFailed):
		status, message = http.StatusBadRequest, err.Error()
	}
	renderErrorPage(w, r, status, message)
}

// RenderPanic shows the generic error page after a handler panicked
func RenderPanic(w http.ResponseWriter, r *http.Request, _ any) {
	renderErrorPage(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
