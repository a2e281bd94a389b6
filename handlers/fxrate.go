package handlers

import (
	"net/http"
	"time"
	"tripledger-backend/fx"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
)

// FX is the shared rate resolver, wired up in main.
var FX *fx.Resolver

// GET /api/fx/rate?date=YYYY-MM-DD&from=EUR&to=USD
func GetFXRate(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if !models.IsSupportedCurrency(from) || !models.IsSupportedCurrency(to) {
		utils.BadRequest(c, "from and to must be supported currency codes")
		return
	}

	date := time.Now()
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			utils.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	rate, err := FX.Resolve(c.Request.Context(), date, from, to)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "FX rate unavailable: "+err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.FXRateResponse{
		From:   rate.From,
		To:     rate.To,
		Rate:   rate.Rate,
		Date:   rate.Date.Format("2006-01-02"),
		Source: string(rate.Source),
	})
}

// DELETE /api/fx/cache — operator-triggered cache invalidation
func ClearFXCache(c *gin.Context) {
	if err := FX.ClearCache(c.Request.Context()); err != nil {
		utils.InternalError(c, "Failed to clear FX cache")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "FX cache cleared", nil)
}
