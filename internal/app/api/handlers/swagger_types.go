package handlers

import (
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/app/service/statistics"
	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespSnapshotResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconcile.SnapshotResult `json:"data"`
}

type RespBillingStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    BillingStatusResponse    `json:"data"`
}

type RespMe struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    MeResponse               `json:"data"`
}

type RespBalance struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    BalanceResponse          `json:"data"`
}

type RespRedeem struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    discount.RedeemResult    `json:"data"`
}

type RespUser struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.User              `json:"data"`
}

type RespDiscountCode struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.DiscountCode      `json:"data"`
}

type RespDiscountCodes struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []DiscountCodeItem       `json:"data"`
}

type RespListSubscriptions struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    ListSubscriptionsResponse `json:"data"`
}

type RespShopDetail struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ShopDetailResponse       `json:"data"`
}

type RespStatistic struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}
