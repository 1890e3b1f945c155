package swaggerui

import (
	"net/http"

	swgui "github.com/swaggest/swgui/v5"
)

// Handler serves Swagger UI for the OpenAPI document at docPath, mounted at basePath.
func Handler(docPath, basePath string) http.Handler {
	return swgui.New("devboard API", docPath, basePath)
}
