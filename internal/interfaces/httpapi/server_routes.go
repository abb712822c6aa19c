package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/push/public-key", handler.GetPublicKey)
	mux.HandleFunc("POST /v1/push/subscriptions", handler.Subscribe)
	mux.HandleFunc("DELETE /v1/push/subscriptions", handler.Unsubscribe)
	mux.HandleFunc("PUT /v1/push/subscriptions/drafts", handler.SetDrafts)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/draft-clock", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDraftClockJob)))
}
