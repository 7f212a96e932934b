package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stocks := router.Group("/api/stocks")
	{
		stocks.GET("", middleware.RequireAuth(), h.List)
		stocks.PUT("", middleware.RequireManage(), h.Upsert)
		stocks.DELETE("/:id", middleware.RequireManage(), h.Delete)
		stocks.POST("/:id/adjust", middleware.RequireManage(), h.Adjust)
	}
	router.GET("/api/stock-adjustments", middleware.RequireAuth(), h.ListAdjustments)
}

// Upsert sets a stock row outright, bypassing the costing blend. Intended
// for seeding initial inventory.
func (h *StockHandler) Upsert(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.UpsertStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	stock, err := h.stockService.Upsert(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

func (h *StockHandler) Adjust(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	stock, err := h.stockService.Adjust(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

func (h *StockHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.stockService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Stock record deleted successfully"))
}

func (h *StockHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	params := pagination.Parse(c)

	stocks, total, err := h.stockService.List(c.Request.Context(), actor, shopID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stocks": stocks,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

func (h *StockHandler) ListAdjustments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	productID, ok := uuidQuery(c, "product_id")
	if !ok {
		return
	}
	params := pagination.Parse(c)

	adjustments, total, err := h.stockService.ListAdjustments(c.Request.Context(), actor, shopID, productID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"adjustments": adjustments,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}
