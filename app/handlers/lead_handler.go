// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Jorougumo/app/dto"
	businessflow "github.com/amirphl/Jorougumo/business_flow"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// LeadHandlerInterface defines the contract for lead handlers
type LeadHandlerInterface interface {
	DiscoverLeads(c fiber.Ctx) error
	ListLeads(c fiber.Ctx) error
	ConvertLead(c fiber.Ctx) error
	ExportLeads(c fiber.Ctx) error
}

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	leadFlow  businessflow.LeadFlow
	validator *validator.Validate
}

func (h *LeadHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LeadHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadFlow businessflow.LeadFlow) *LeadHandler {
	return &LeadHandler{
		leadFlow:  leadFlow,
		validator: validator.New(),
	}
}

// DiscoverLeads runs a discovery round against a platform
func (h *LeadHandler) DiscoverLeads(c fiber.Ctx) error {
	var req dto.DiscoverLeadsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Discovery fans out over platform search plus one oracle call per author
	result, err := h.leadFlow.DiscoverLeads(h.createRequestContextWithTimeout(c, "/api/v1/leads/discover", 120*time.Second), &req, metadata)
	if err != nil {
		if businessflow.IsUnsupportedPlatform(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported platform", "UNSUPPORTED_PLATFORM", nil)
		}
		if businessflow.IsKeywordsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one keyword is required", "KEYWORDS_REQUIRED", nil)
		}

		log.Println("Lead discovery failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Lead discovery failed", "LEAD_DISCOVERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead discovery completed", result)
}

// ListLeads lists persisted leads with pagination and filtering
func (h *LeadHandler) ListLeads(c fiber.Ctx) error {
	// Parse query params
	pageStr := c.Query("page", "1")
	pageSizeStr := c.Query("page_size", "20")
	page := 1
	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}
	pageSize := 20
	if v, err := strconv.Atoi(pageSizeStr); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > 100 {
		pageSize = 100
	}

	req := &dto.ListLeadsRequest{
		Page:     page,
		PageSize: pageSize,
	}
	if platform := c.Query("platform"); platform != "" {
		req.Platform = &platform
	}
	if minScoreStr := c.Query("min_lead_score"); minScoreStr != "" {
		if v, err := strconv.Atoi(minScoreStr); err == nil {
			req.MinLeadScore = &v
		}
	}
	if minFollowersStr := c.Query("min_followers"); minFollowersStr != "" {
		if v, err := strconv.Atoi(minFollowersStr); err == nil {
			req.MinFollowers = &v
		}
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.leadFlow.ListLeads(h.createRequestContext(c, "/api/v1/leads"), req, metadata)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Listing leads failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list leads", "LEAD_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Leads retrieved successfully", result)
}

// ConvertLead converts a lead into a CRM contact
func (h *LeadHandler) ConvertLead(c fiber.Ctx) error {
	leadUUID := c.Params("uuid")
	if leadUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Lead UUID is required", "MISSING_LEAD_UUID", nil)
	}

	var req dto.ConvertLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = leadUUID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.leadFlow.ConvertLead(h.createRequestContext(c, "/api/v1/leads/"+leadUUID+"/convert"), &req, metadata)
	if err != nil {
		if businessflow.IsLeadNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", "LEAD_NOT_FOUND", nil)
		}
		if businessflow.IsLeadUUIDRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Lead UUID is required", "MISSING_LEAD_UUID", nil)
		}

		log.Println("Lead conversion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Lead conversion failed", "LEAD_CONVERSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead converted successfully", result)
}

// ExportLeads streams the matching leads as an xlsx attachment
func (h *LeadHandler) ExportLeads(c fiber.Ctx) error {
	req := &dto.ExportLeadsRequest{}
	if platform := c.Query("platform"); platform != "" {
		req.Platform = &platform
	}
	if minScoreStr := c.Query("min_lead_score"); minScoreStr != "" {
		if v, err := strconv.Atoi(minScoreStr); err == nil {
			req.MinLeadScore = &v
		}
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	filename, content, err := h.leadFlow.ExportLeads(h.createRequestContext(c, "/api/v1/leads/export"), req, metadata)
	if err != nil {
		if businessflow.IsNoLeadsToExport(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No leads match the export filter", "NO_LEADS_TO_EXPORT", nil)
		}

		log.Println("Lead export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Lead export failed", "LEAD_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *LeadHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *LeadHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}
