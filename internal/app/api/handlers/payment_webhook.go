package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/callback"
	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/platform/gateway"
	"github.com/ventopay/checkout/pkg/logctx"
	"github.com/ventopay/checkout/pkg/response"
)

// NotificationResolver authenticates and resolves an async notification.
type NotificationResolver interface {
	HandleNotification(ctx context.Context, raw []byte) (*callback.NotificationResult, error)
}

// @Summary      Gateway webhook
// @Description  Receives asynchronous payment notifications. The payload signature is verified before anything is processed.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.APIResponse[callback.NotificationResult]
// @Router       /api/v2/payment/webhook [post]
func ApiGatewayWebhook(svc NotificationResolver, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		log.Infow("webhook_received")

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := svc.HandleNotification(c.Request.Context(), raw)
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
			return
		case errors.Is(err, payments.ErrNotFound):
			// Acknowledge without processing; the gateway should not retry
			// a notification we will never be able to match.
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			return
		case err != nil:
			log.Errorw("webhook_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		log.Infow("webhook_handled", "reference", res.Reference, "status", res.Status)
		c.JSON(http.StatusOK, response.OKT(res))
	}
}
