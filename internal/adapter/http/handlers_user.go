package http

import (
	"net/http"
	"time"

	"github.com/deepscout/deepscout/internal/domain/user"
)

// userResponse is the wire shape for accounts; it never carries the
// password hash.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "could not create user")
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "could not list users")
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.UpdateRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	u, err := h.users.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
