//go:build !swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
)

// MountSwagger does nothing in default builds; the swagger UI and its
// generated docs only ship when built with -tags=swagger.
func MountSwagger(chi.Router) {}
