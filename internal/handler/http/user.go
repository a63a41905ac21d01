package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/cadastro/internal/service"
	"github.com/utafrali/cadastro/pkg/httputil"
	"github.com/utafrali/cadastro/pkg/validator"
)

// UserHandler handles HTTP requests for the /users resource.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// AddressRequest is one entry of the addresses list.
type AddressRequest struct {
	CEP        string `json:"cep" validate:"required"`
	Logradouro string `json:"logradouro" validate:"required"`
	Numero     string `json:"numero" validate:"required"`
	Bairro     string `json:"bairro" validate:"required"`
	Cidade     string `json:"cidade" validate:"required"`
	Estado     string `json:"estado" validate:"required"`
}

// CreateUserRequest is the JSON request body for POST /users.
type CreateUserRequest struct {
	Name      string            `json:"name" validate:"required"`
	Email     string            `json:"email" validate:"required"`
	CPF       string            `json:"cpf" validate:"required,cpf"`
	Phone     string            `json:"phone"`
	Age       *int              `json:"age" validate:"required"`
	Addresses *[]AddressRequest `json:"addresses" validate:"required,dive"`
}

// UpdateUserRequest is the JSON request body for PUT /users/{id}. Omitted
// fields keep their stored value.
type UpdateUserRequest struct {
	Name      *string           `json:"name" validate:"omitempty,min=1"`
	Email     *string           `json:"email" validate:"omitempty,min=1"`
	CPF       *string           `json:"cpf" validate:"omitempty,cpf"`
	Phone     *string           `json:"phone"`
	Age       *int              `json:"age"`
	Addresses *[]AddressRequest `json:"addresses" validate:"omitempty,dive"`
}

// --- Handlers ---

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	user, err := h.service.Create(r.Context(), service.CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		CPF:       req.CPF,
		Phone:     req.Phone,
		Age:       *req.Age,
		Addresses: toAddressInputs(*req.Addresses),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusCreated, "user created successfully", user.ID)
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	input := service.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		CPF:   req.CPF,
		Phone: req.Phone,
		Age:   req.Age,
	}
	if req.Addresses != nil {
		addrs := toAddressInputs(*req.Addresses)
		input.Addresses = &addrs
	}

	if _, err := h.service.Update(r.Context(), id, input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "user updated successfully", id)
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "user deleted successfully", id)
}

func toAddressInputs(reqs []AddressRequest) []service.AddressInput {
	out := make([]service.AddressInput, len(reqs))
	for i, a := range reqs {
		out[i] = service.AddressInput{
			CEP:        a.CEP,
			Logradouro: a.Logradouro,
			Numero:     a.Numero,
			Bairro:     a.Bairro,
			Cidade:     a.Cidade,
			Estado:     a.Estado,
		}
	}
	return out
}
