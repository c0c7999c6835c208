package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func serviceUnavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, name string) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// requireActor writes 401 and returns false when Auth did not run.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return auth.Actor{}, false
	}
	return actor, true
}
