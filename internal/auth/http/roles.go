package http

import (
	"net/http"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// ServeHTTP handles the list roles endpoint
//
//	@Summary		List all roles
//	@Description	Returns every role. Requires the admin role.
//	@Tags			Roles
//	@Produce		json
//	@Success		200	{object}	authsdk.RolesResponse	"List of roles"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized - missing or invalid token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - admin role required"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/v1/roles [get].
func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	roles, err := h.RolesService.ListRoles(ctx)
	if err != nil {
		log.Error("failed to list roles", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.RolesResponse{
		Roles: make([]authsdk.RoleResponse, len(roles)),
	}
	for i, role := range roles {
		response.Roles[i] = authsdk.RoleResponse{
			ID:   role.ID,
			Name: role.Name,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
