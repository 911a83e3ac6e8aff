package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/pkg/httpx"
	"github.com/halolight/officehub/pkg/idx"
	"github.com/halolight/officehub/pkg/slogx"
)

type userHandlers struct {
	users *service.UserService
	roles *service.RoleService
}

func (h *userHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.users.List(r.Context(), page, limit)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	dtos := make([]userDTO, len(result.Users))
	for i, u := range result.Users {
		dtos[i] = toUserDTO(u)
	}
	httpx.Paginated(w, dtos, httpx.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func (h *userHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	httpx.Success(w, toUserDTO(user))
}

func (h *userHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	dtos := make([]roleDTO, len(roles))
	for i, role := range roles {
		dtos[i] = toRoleDTO(role)
	}
	httpx.Success(w, dtos)
}

func (h *userHandlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", "error", err.Error())
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}
