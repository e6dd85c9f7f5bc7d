package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ApprovalService is the interface that wraps methods for the admin review of courses
type ApprovalService interface {
	// ListRequests retrieves a paginated list of approval requests
	//
	// "ctx" is the context for the request.
	// "status" is the status of the requests (empty for PENDING).
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of approval requests and an error if any.
	ListRequests(ctx context.Context, status string, page, count int) ([]models.ApprovalListItem, error)
	// GetRequestDetail retrieves an approval request with its course and curriculum snapshot
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the approval request.
	//
	// Returns the request detail and an error if any.
	GetRequestDetail(ctx context.Context, id int) (*models.ApprovalDetail, error)
	// Approve publishes the course of a pending request
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the approval request.
	// "reviewerID" is the ID of the admin.
	// "notes" are optional admin notes.
	//
	// Returns an error if any.
	Approve(ctx context.Context, id, reviewerID int, notes string) error
	// Reject rejects the course of a pending request
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the approval request.
	// "reviewerID" is the ID of the admin.
	// "notes" are the required admin notes.
	//
	// Returns an error if any.
	Reject(ctx context.Context, id, reviewerID int, notes string) error
}

// ApprovalHandler handles HTTP requests for course approvals
type ApprovalHandler struct {
	BaseHandler
	service ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(svc ApprovalService, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all approval handler routes
func (h *ApprovalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/approvals", func(r chi.Router) {
		r.Get("/", h.ListRequests)
		r.Get("/{id}", h.GetRequestDetail)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})
}

// ListRequests handles GET /admin/approvals
// @Summary List approval requests
// @Description Get paginated list of approval requests, oldest first
// @Tags admin
// @Produce json
// @Param status query string false "Request status (PENDING, APPROVED, REJECTED), default: PENDING"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20)"
// @Success 200 {array} models.ApprovalListItem
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/approvals [get]
func (h *ApprovalHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, count := pagination(r)

	items, err := h.service.ListRequests(r.Context(), r.URL.Query().Get("status"), page, count)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list approval requests")
		return
	}

	h.RespondJSON(w, http.StatusOK, items)
}

// GetRequestDetail handles GET /admin/approvals/{id}
// @Summary Get approval request
// @Description Get an approval request with its course and the curriculum under review
// @Tags admin
// @Produce json
// @Param id path int true "Approval request ID"
// @Success 200 {object} models.ApprovalDetail
// @Failure 404 {object} map[string]string "Approval request not found"
// @Router /admin/approvals/{id} [get]
func (h *ApprovalHandler) GetRequestDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid approval request ID")
		return
	}

	detail, err := h.service.GetRequestDetail(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get approval request")
		return
	}

	h.RespondJSON(w, http.StatusOK, detail)
}

// Approve handles POST /admin/approvals/{id}/approve
// @Summary Approve a course
// @Tags admin
// @Accept json
// @Param id path int true "Approval request ID"
// @Param request body models.ReviewDecisionRequest false "Optional admin notes"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Approval request not found"
// @Failure 409 {object} map[string]string "Approval request has already been reviewed"
// @Router /admin/approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "failed to approve course")
}

// Reject handles POST /admin/approvals/{id}/reject
// @Summary Reject a course
// @Tags admin
// @Accept json
// @Param id path int true "Approval request ID"
// @Param request body models.ReviewDecisionRequest true "Admin notes explaining the rejection"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Admin notes are required"
// @Failure 404 {object} map[string]string "Approval request not found"
// @Failure 409 {object} map[string]string "Approval request has already been reviewed"
// @Router /admin/approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "failed to reject course")
}

func (h *ApprovalHandler) decide(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, id, reviewerID int, notes string) error, message string) {
	reviewerID, err := h.getUserID(r)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid approval request ID")
		return
	}

	// The body is optional when approving
	var req models.ReviewDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := decide(r.Context(), id, reviewerID, req.Notes); err != nil {
		h.RespondServiceError(w, err, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
