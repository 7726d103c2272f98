package controllers

import (
	"net/http"
	"strconv"

	"marketplace-service/middleware"
	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const idempotencyKeyHeader = "Idempotency-Key"

// respondError renders a ServiceError as {"error": ..., "code": ...}.
func respondError(ctx *gin.Context, err *services.ServiceError) {
	ctx.JSON(err.StatusCode, gin.H{"error": err.Message, "code": err.Code})
}

func badRequest(ctx *gin.Context, msg string, cause error) {
	body := gin.H{"error": msg, "code": services.CodeInvalidInput}
	if cause != nil {
		body["details"] = cause.Error()
	}
	ctx.JSON(http.StatusBadRequest, body)
}

// principal returns the authenticated caller, writing 401 when absent.
func principal(ctx *gin.Context) (models.Principal, bool) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
		return models.Principal{}, false
	}
	return p, true
}

func uuidParam(ctx *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		badRequest(ctx, "Invalid "+label+" ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	page := ctx.DefaultQuery("page", "1")
	limit := ctx.DefaultQuery("limit", "10")

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		pageInt = p
	}

	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}

// optionalIntQuery parses an integer query parameter, writing 400 when it is
// present but malformed.
func optionalIntQuery(ctx *gin.Context, name string) (*int, bool) {
	raw, present := ctx.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(ctx, "Invalid "+name, nil)
		return nil, false
	}
	return &v, true
}

func optionalUUIDQuery(ctx *gin.Context, name, label string) (*uuid.UUID, bool) {
	raw, present := ctx.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(ctx, "Invalid "+label+" ID format", nil)
		return nil, false
	}
	return &id, true
}
