package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PhilHem/registry-server/backend/database"
	"github.com/PhilHem/registry-server/backend/models"
	"github.com/PhilHem/registry-server/backend/repository"
)

type MembersResponse struct {
	OrganizationID int64                     `json:"organization_id"`
	Members        []models.UserOrganization `json:"members"`
}

func membershipRepo() *repository.MembershipRepository {
	return repository.NewMembershipRepository(database.DB)
}

func GetMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}

	members, err := membershipRepo().FindAllByOrganizationID(r.Context(), orgID)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MembersResponse{OrganizationID: orgID, Members: members})
}

func GetMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}

	m, err := membershipRepo().FindOneByOrganizationIDAndUsername(r.Context(), orgID, r.PathValue("username"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	if m == nil {
		http.Error(w, "Membership not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func AddMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}
	username := r.PathValue("username")

	m, err := membershipRepo().Add(r.Context(), orgID, username)
	if errors.Is(err, repository.ErrDuplicateMembership) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if errors.Is(err, repository.ErrBlankUsername) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("member added", "source", "members", "organization_id", orgID, "username", username)
	writeJSON(w, http.StatusCreated, m)
}

func RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}
	username := r.PathValue("username")

	removed, err := membershipRepo().Remove(r.Context(), orgID, username)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if !removed {
		http.Error(w, "Membership not found", http.StatusNotFound)
		return
	}

	slog.Info("member removed", "source", "members", "organization_id", orgID, "username", username)
	w.WriteHeader(http.StatusNoContent)
}
