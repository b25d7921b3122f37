package domains

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"linkhub/internal/customdomain"
	"linkhub/internal/httpx"
	"linkhub/internal/model"
)

// Handler handles custom domain API requests
type Handler struct {
	service *customdomain.Service
}

// NewHandler creates a new custom domain handler
func NewHandler(service *customdomain.Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/domains
func (h *Handler) List(c *gin.Context) {
	uid := c.GetInt("uid")

	ds, err := h.service.ListByUser(uid)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list domains", err))
		return
	}

	httpx.OK(c, gin.H{
		"items": toDomainResponses(ds),
		"total": len(ds),
	})
}

// Create handles POST /api/v1/domains/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	uid := c.GetInt("uid")
	d, err := h.service.Create(uid, req.Domain)
	if err != nil {
		switch {
		case errors.Is(err, customdomain.ErrInvalidDomain):
			httpx.FailErr(c, httpx.ErrParamIllegal(err.Error()))
		case errors.Is(err, customdomain.ErrDomainTaken):
			httpx.FailErr(c, httpx.ErrAlreadyExists("domain is already registered"))
		default:
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to create domain", err))
		}
		return
	}

	httpx.OK(c, toDomainResponse(d))
}

// Verify handles POST /api/v1/domains/verify. It runs one verification poll
// and returns the updated state; an unverified domain is a normal response,
// not an error.
func (h *Handler) Verify(c *gin.Context) {
	var req DomainIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	d, ok := h.loadOwned(c, req.ID)
	if !ok {
		return
	}

	updated, err := h.service.Verify(c.Request.Context(), d.ID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to verify domain", err))
		return
	}

	httpx.OK(c, toDomainResponse(updated))
}

// Instructions handles GET /api/v1/domains/instructions?id=N
func (h *Handler) Instructions(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamMissing("parameter 'id' is required"))
		return
	}

	d, ok := h.loadOwned(c, id)
	if !ok {
		return
	}

	ins, err := h.service.SetupInstructions(d.ID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to build instructions", err))
		return
	}

	httpx.OK(c, InstructionsResponse{
		Phase:   string(ins.Phase),
		Records: ins.Records,
	})
}

// SetDefault handles POST /api/v1/domains/set-default
func (h *Handler) SetDefault(c *gin.Context) {
	var req DomainIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	d, ok := h.loadOwned(c, req.ID)
	if !ok {
		return
	}

	updated, err := h.service.SetDefault(d.ID)
	if err != nil {
		if errors.Is(err, customdomain.ErrPreconditionFailed) {
			httpx.FailErr(c, httpx.ErrStateConflict("domain must be verified with an active certificate"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to set default domain", err))
		return
	}

	httpx.OK(c, toDomainResponse(updated))
}

// Delete handles POST /api/v1/domains/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DomainIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	d, ok := h.loadOwned(c, req.ID)
	if !ok {
		return
	}

	if err := h.service.Delete(d.ID); err != nil {
		if errors.Is(err, customdomain.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete domain", err))
		return
	}

	httpx.OK(c, gin.H{"deleted": true})
}

// loadOwned loads a domain and enforces that the caller owns it. Foreign
// domains read as not-found so ids cannot be probed.
func (h *Handler) loadOwned(c *gin.Context, id int) (*model.CustomDomain, bool) {
	record, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, customdomain.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
		} else {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to load domain", err))
		}
		return nil, false
	}

	if record.UserID != c.GetInt("uid") {
		httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
		return nil, false
	}

	return record, true
}
