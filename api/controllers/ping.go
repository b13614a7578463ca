package controllers

import (
	"net/http"

	"github.com/muralhq/mural-backend/api/middleware"
	"github.com/muralhq/mural-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if accountID := middleware.AccountIDFromContext(r.Context()); accountID != "" {
			payload["account_id"] = accountID
		}
		responses.WriteSuccess(w, payload)
	}
}
