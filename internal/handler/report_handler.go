package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultLowStockThreshold = 5

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/profit", middleware.RequireAuth(), h.Profit)
		reports.GET("/profit-by-product", middleware.RequireAuth(), h.ProfitByProduct)
		reports.GET("/dashboard", middleware.RequireAuth(), h.Dashboard)
		reports.GET("/audit-timeline", middleware.RequireAuth(), h.AuditTimeline)
	}
	alerts := router.Group("/api/alerts")
	{
		alerts.GET("/low-stock", middleware.RequireAuth(), h.LowStock)
		alerts.GET("/reorder-suggestions", middleware.RequireAuth(), h.ReorderSuggestions)
	}
}

func (h *ReportHandler) Profit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	from, to, ok := periodQuery(c)
	if !ok {
		return
	}

	report, err := h.reportService.Profit(c.Request.Context(), actor, shopID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

func (h *ReportHandler) ProfitByProduct(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	from, to, ok := periodQuery(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, err := h.reportService.ProfitByProduct(c.Request.Context(), actor, shopID, from, to, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	threshold, _ := strconv.Atoi(c.DefaultQuery("low_stock_threshold", strconv.Itoa(defaultLowStockThreshold)))

	summary, err := h.reportService.Dashboard(c.Request.Context(), actor, shopID, threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

func (h *ReportHandler) LowStock(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", strconv.Itoa(defaultLowStockThreshold)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	stocks, err := h.reportService.LowStock(c.Request.Context(), actor, shopID, threshold, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stocks))
}

func (h *ReportHandler) ReorderSuggestions(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	lookback, _ := strconv.Atoi(c.DefaultQuery("lookback_days", "30"))
	lead, _ := strconv.Atoi(c.DefaultQuery("lead_days", "7"))

	suggestions, err := h.reportService.ReorderSuggestions(c.Request.Context(), actor, service.ReorderQuery{
		ShopID:       shopID,
		LookbackDays: lookback,
		LeadDays:     lead,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suggestions))
}

func (h *ReportHandler) AuditTimeline(c *gin.Context) {
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
	if productID == nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "product_id is required"))
		return
	}
	from, to, ok := periodQuery(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.reportService.AuditTimeline(c.Request.Context(), actor, shopID, *productID, from, to, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}
