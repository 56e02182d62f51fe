package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	commonhttp "github.com/kyodo/backend/internal/common/http"
	"github.com/kyodo/backend/internal/common/logger"
	groupdomain "github.com/kyodo/backend/internal/group/domain"
	"github.com/kyodo/backend/internal/group/service"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

type Service interface {
	CreateGroup(ctx context.Context, input service.CreateGroupInput) (groupdomain.ID, error)
	AddMember(ctx context.Context, input service.AddMemberInput) error
	ListGroupsForUser(ctx context.Context, userID userdomain.ID) ([]groupdomain.GroupWithMembers, error)
}

type createGroupRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	UserID string `json:"user_id" validate:"required"`
}

type createGroupResponse struct {
	GroupID groupdomain.ID `json:"group_id"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type memberResponse struct {
	UserID userdomain.ID `json:"user_id"`
	Name   string        `json:"name"`
}

type groupResponse struct {
	GroupID groupdomain.ID   `json:"group_id"`
	Name    string           `json:"name"`
	Users   []memberResponse `json:"users"`
}

type Handler struct {
	groups Service
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
}

func NewHandler(groups Service, log *logger.Logger) *Handler {
	return &Handler{groups: groups, errors: commonhttp.NewErrorHandler(log), log: log}
}

// Routes mounts the group endpoints, conventionally under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/groups", h.createGroup)
	r.Post("/groups/{groupID}/members", h.addMember)
	r.Get("/users/{userID}/groups", h.listGroups)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !commonhttp.DecodeAndValidate(w, r, &req) {
		return
	}
	creatorID, ok := commonhttp.ParseID[userdomain.Kind](w, r, "user_id", req.UserID)
	if !ok {
		return
	}

	groupID, err := h.groups.CreateGroup(r.Context(), service.CreateGroupInput{
		Name:      req.Name,
		CreatorID: creatorID,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, createGroupResponse{GroupID: groupID})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := commonhttp.ParseID[groupdomain.Kind](w, r, "group_id", chi.URLParam(r, "groupID"))
	if !ok {
		return
	}

	var req addMemberRequest
	if !commonhttp.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := commonhttp.ParseID[userdomain.Kind](w, r, "user_id", req.UserID)
	if !ok {
		return
	}

	if err := h.groups.AddMember(r.Context(), service.AddMemberInput{UserID: userID, GroupID: groupID}); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := commonhttp.ParseID[userdomain.Kind](w, r, "user_id", chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	groups, err := h.groups.ListGroupsForUser(r.Context(), userID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		members := make([]memberResponse, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, memberResponse{UserID: m.ID, Name: m.Name})
		}
		resp = append(resp, groupResponse{GroupID: g.ID, Name: g.Name, Users: members})
	}

	commonhttp.WriteJSON(w, http.StatusOK, resp)
}
