package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/statistics"
	"github.com/ventopay/checkout/pkg/response"
)

// PaymentScanner lists payment records for the admin panel.
type PaymentScanner interface {
	Scan(ctx context.Context, req *payments.ScanRequest) (*payments.ScanResponse, error)
}

// StatisticsProvider aggregates payment activity.
type StatisticsProvider interface {
	GetPaymentStatistics(ctx context.Context, req *statistics.Request) (*statistics.Response, error)
}

// @Summary      Scan payments
// @Description  Paginated payment listing with filters for the admin panel.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body payments.ScanRequest true "Scan request"
// @Success      200  {object}  response.APIResponse[payments.ScanResponse]
// @Router       /api/v1/admin/payments/scan [post]
func ApiAdminScanPayments(store PaymentScanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payments.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := store.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type reversePaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// @Summary      Reverse payment
// @Description  Voids the settled transaction behind an approved payment.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.reversePaymentRequest true "Reverse request"
// @Success      200  {object}  response.APIResponse[checkout.ReversePaymentResult]
// @Router       /api/v1/admin/payments/reverse [post]
func ApiAdminReversePayment(mgr CheckoutManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reversePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := mgr.ReversePayment(c.Request.Context(), req.Reference)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment statistics
// @Description  Daily counts, captured amounts and status breakdown of payments.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.Request true "Statistics request"
// @Success      200  {object}  response.APIResponse[statistics.Response]
// @Router       /api/v1/admin/payments/statistics [post]
func ApiAdminPaymentStatistics(stats StatisticsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := stats.GetPaymentStatistics(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterAdminPaymentRoutes mounts the admin surface under the given group.
func RegisterAdminPaymentRoutes(r gin.IRouter, store PaymentScanner, mgr CheckoutManager, stats StatisticsProvider) {
	r.POST("/payments/scan", ApiAdminScanPayments(store))
	r.POST("/payments/reverse", ApiAdminReversePayment(mgr))
	r.POST("/payments/statistics", ApiAdminPaymentStatistics(stats))
}
