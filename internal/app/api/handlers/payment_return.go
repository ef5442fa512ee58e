package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/callback"
	"github.com/ventopay/checkout/internal/app/service/payments"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
	"github.com/ventopay/checkout/pkg/logctx"
)

// ReturnResolver resolves the synchronous return flow.
type ReturnResolver interface {
	HandleReturn(ctx context.Context, encodedRef string) (*callback.ReturnResult, error)
}

// @Summary      Payment return
// @Description  Landing point for buyers coming back from the gateway; reconciles and redirects to the storefront order page.
// @Tags         Payment
// @Param        _  query  string  true  "Encoded payment reference"
// @Success      302
// @Router       /api/v2/payment/return [get]
func ApiPaymentReturn(cfg *cfgpkg.Config, svc ReturnResolver, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)

		res, err := svc.HandleReturn(c.Request.Context(), c.Query("_"))
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				// Generic landing page; no hint about which references exist.
				c.Redirect(http.StatusFound, cfg.Storefront.HomeURL)
				return
			}
			log.Errorw("return_flow_failed", "err", err)
			c.Redirect(http.StatusFound, cfg.Storefront.HomeURL)
			return
		}

		log.Infow("return_flow_resolved", "reference", res.Reference, "status", res.Status)
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/%s", cfg.Storefront.OrderURLBase, res.OrderRef))
	}
}
