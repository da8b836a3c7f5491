package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerResolutionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players/resolve", handler.ResolvePlayer)
	mux.HandleFunc("GET /v1/names/{name}/analysis", handler.AnalyzeName)
	mux.HandleFunc("POST /v1/names/{name}/proposals", handler.ProposeForName)
}

func registerMappingRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/mappings", handler.ListMappings)
	mux.HandleFunc("POST /v1/mappings", handler.CreateMapping)
	mux.HandleFunc("POST /v1/mappings/{mappingID}/confirm", handler.ConfirmMapping)
	mux.HandleFunc("DELETE /v1/mappings/{mappingID}", handler.RejectMapping)
	mux.HandleFunc("POST /v1/mappings/materialize", handler.MaterializeMappings)
	mux.HandleFunc("POST /v1/mappings/{mappingID}/reverse", handler.ReverseMapping)
	mux.HandleFunc("GET /v1/mappings/verify", handler.VerifyMappings)
}
