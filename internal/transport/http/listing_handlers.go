package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/listing"
	"github.com/vovakirdan/marketwire/internal/service/listings"
	"github.com/vovakirdan/marketwire/internal/store"
)

// ListingHandlers provides HTTP handlers for the listing dashboard.
type ListingHandlers struct {
	service *listings.Service
	log     *zerolog.Logger
}

// NewListingHandlers creates listing handlers.
func NewListingHandlers(service *listings.Service, logger *zerolog.Logger) *ListingHandlers {
	return &ListingHandlers{
		service: service,
		log:     logger,
	}
}

// CreateListingRequest represents the create listing request body.
type CreateListingRequest struct {
	Description string `json:"description" binding:"required,max=2000"`
}

// TransitionRequest asks to move a listing to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListingResponse represents a listing in API responses.
type ListingResponse struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Decoration     string  `json:"decoration,omitempty"`
	Terminal       bool    `json:"terminal"`
	Description    string  `json:"description"`
	CreatedAt      string  `json:"created_at"`
	TransitionedAt *string `json:"transitioned_at,omitempty"`
}

// FiltersResponse lists the filters offered to the dashboard.
type FiltersResponse struct {
	Filters []string `json:"filters"`
}

func listingResponse(l *listing.Listing) ListingResponse {
	resp := ListingResponse{
		ID:          l.ID,
		Status:      l.Status.String(),
		Decoration:  l.Status.Decoration().String(),
		Terminal:    l.Status.Terminal(),
		Description: l.Description,
		CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.TransitionedAt != nil {
		at := l.TransitionedAt.UTC().Format(time.RFC3339)
		resp.TransitionedAt = &at
	}
	return resp
}

// Browse returns listings matching the status filter.
// GET /api/listings?status=
func (h *ListingHandlers) Browse(c *gin.Context) {
	filter, err := listing.ParseFilter(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	found, err := h.service.Browse(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Str("filter", string(filter)).Msg("failed to browse listings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]ListingResponse, 0, len(found))
	for _, l := range found {
		resp = append(resp, listingResponse(l))
	}
	c.JSON(http.StatusOK, resp)
}

// Filters returns the filter vocabulary offered by the dashboard.
// GET /api/listings/filters
func (h *ListingHandlers) Filters(c *gin.Context) {
	filters := listing.DefaultFilters()
	resp := FiltersResponse{Filters: make([]string, 0, len(filters))}
	for _, f := range filters {
		resp.Filters = append(resp.Filters, string(f))
	}
	c.JSON(http.StatusOK, resp)
}

// Create publishes a new listing.
// POST /api/listings
func (h *ListingHandlers) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create listing request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	l, err := h.service.Create(c.Request.Context(), req.Description)
	if err != nil {
		if errors.Is(err, listings.ErrDescriptionRequired) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "description is required"})
			return
		}
		h.log.Error().Err(err).Msg("failed to create listing")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, listingResponse(l))
}

// Get returns a single listing.
// GET /api/listings/:id
func (h *ListingHandlers) Get(c *gin.Context) {
	l, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "listing not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to get listing")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, listingResponse(l))
}

// Transition moves a listing along its lifecycle.
// POST /api/listings/:id/transition
func (h *ListingHandlers) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	target, err := listing.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	l, err := h.service.Transition(c.Request.Context(), c.Param("id"), target)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, listingResponse(l))
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "listing not found"})
	case errors.Is(err, listing.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "listing changed concurrently, retry"})
	default:
		h.log.Error().Err(err).Str("listing_id", c.Param("id")).Msg("failed to transition listing")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
