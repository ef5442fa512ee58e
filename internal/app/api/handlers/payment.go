package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/checkout"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
	"github.com/ventopay/checkout/pkg/response"
)

// CheckoutManager opens and manipulates payment attempts.
type CheckoutManager interface {
	CreateSession(ctx context.Context, req *checkout.CreateSessionRequest) (*checkout.CreateSessionResult, error)
	CollectPayment(ctx context.Context, req *checkout.CollectPaymentRequest) (*checkout.CollectPaymentResult, error)
	ReversePayment(ctx context.Context, reference string) (*checkout.ReversePaymentResult, error)
}

// @Summary      Create payment session
// @Description  Creates a gateway payment session and returns the redirect URL for the buyer.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body checkout.CreateSessionRequest true "Checkout request"
// @Success      200  {object}  response.APIResponse[checkout.CreateSessionResult]
// @Router       /api/v2/payment/checkout [post]
func ApiCreateSession(mgr CheckoutManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.IPAddress == "" {
			req.IPAddress = c.ClientIP()
		}
		if req.UserAgent == "" {
			req.UserAgent = c.Request.UserAgent()
		}

		res, err := mgr.CreateSession(c.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, checkout.ErrPendingExists) || errors.Is(err, checkout.ErrInvalidInput) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Collect payment
// @Description  Charges a stored payment instrument directly and reconciles the result inline.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body checkout.CollectPaymentRequest true "Collect request"
// @Success      200  {object}  response.APIResponse[checkout.CollectPaymentResult]
// @Router       /api/v2/payment/collect [post]
func ApiCollectPayment(mgr CheckoutManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CollectPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.IPAddress == "" {
			req.IPAddress = c.ClientIP()
		}

		res, err := mgr.CollectPayment(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterPaymentRoutes mounts the buyer-facing payment surface, expected at
// "/api/v2/payment".
func RegisterPaymentRoutes(r gin.IRouter, cfg *cfgpkg.Config, mgr CheckoutManager, ret ReturnResolver, notif NotificationResolver, log *zap.SugaredLogger) {
	r.POST("/checkout", ApiCreateSession(mgr))
	r.POST("/collect", ApiCollectPayment(mgr))
	r.GET("/return", ApiPaymentReturn(cfg, ret, log))
	r.POST("/webhook", ApiGatewayWebhook(notif, log))
}
