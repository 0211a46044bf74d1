package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, mount func(chi.Router)) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StudyHatch Live API", "/openapi.json", "/docs"))

	if mount != nil {
		mount(r)
	}
}
