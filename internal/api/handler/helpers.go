package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

// decode reads a JSON request body, writing the error response on failure
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return false
	}
	return true
}

func listingID(r *http.Request) model.ListingID {
	return model.ListingID(mux.Vars(r)["id"])
}

func userID(r *http.Request) model.UserID {
	return model.UserID(mux.Vars(r)["id"])
}
