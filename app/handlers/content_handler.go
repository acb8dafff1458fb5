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

// ContentHandlerInterface defines the contract for content handlers
type ContentHandlerInterface interface {
	GenerateContent(c fiber.Ctx) error
	ReviewPost(c fiber.Ctx) error
	ListPendingPosts(c fiber.Ctx) error
}

// ContentHandler handles content-related HTTP requests
type ContentHandler struct {
	contentFlow businessflow.ContentFlow
	validator   *validator.Validate
}

func (h *ContentHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ContentHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentFlow businessflow.ContentFlow) *ContentHandler {
	return &ContentHandler{
		contentFlow: contentFlow,
		validator:   validator.New(),
	}
}

// GenerateContent handles the content generation process
func (h *ContentHandler) GenerateContent(c fiber.Ctx) error {
	var req dto.GenerateContentRequest
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

	// Call business logic with proper context
	result, err := h.contentFlow.GenerateContent(h.createRequestContext(c, "/api/v1/content/generate"), &req, metadata)
	if err != nil {
		if businessflow.IsUnsupportedPlatform(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported platform", "UNSUPPORTED_PLATFORM", nil)
		}
		if businessflow.IsFocusRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Content focus is required", "FOCUS_REQUIRED", nil)
		}

		log.Println("Content generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Content generation failed", "CONTENT_GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Content generated successfully", result)
}

// ReviewPost handles the approval workflow decision for a pending post
func (h *ContentHandler) ReviewPost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	var req dto.ReviewPostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = postUUID

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

	// Publishing can take a full platform round trip
	result, err := h.contentFlow.ReviewPost(h.createRequestContextWithTimeout(c, "/api/v1/content/"+postUUID+"/review", 60*time.Second), &req, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Pending post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAlreadyFinalized(err) || businessflow.IsInvalidStatusTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Post cannot transition to the requested status", "INVALID_STATUS_TRANSITION", nil)
		}
		if businessflow.IsContentOverLimit(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Content exceeds platform character limit", "CONTENT_OVER_LIMIT", nil)
		}
		if businessflow.IsScheduleTimeNotPresent(err) || businessflow.IsScheduleTimeInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule time", "INVALID_SCHEDULE_TIME", nil)
		}
		if businessflow.IsUnknownReviewAction(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown review action", "UNKNOWN_REVIEW_ACTION", nil)
		}
		if businessflow.IsPublishFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Platform publish failed", "PUBLISH_FAILED", nil)
		}

		log.Println("Post review failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post review failed", "POST_REVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Review applied successfully", result)
}

// ListPendingPosts lists posts held for review
func (h *ContentHandler) ListPendingPosts(c fiber.Ctx) error {
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

	req := &dto.ListPendingPostsRequest{
		Page:     page,
		PageSize: pageSize,
	}
	if platform := c.Query("platform"); platform != "" {
		req.Platform = &platform
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.contentFlow.ListPendingPosts(h.createRequestContext(c, "/api/v1/content/pending"), req, metadata)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Listing pending posts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list pending posts", "POST_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pending posts retrieved successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ContentHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ContentHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
