package controller

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/entity"
	"github.com/vibast-solutions/ms-go-dibs/app/factory"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/mapper"
	"github.com/vibast-solutions/ms-go-dibs/app/repository"
	"github.com/vibast-solutions/ms-go-dibs/app/service"
	"github.com/vibast-solutions/ms-go-dibs/app/types"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

type orderStore interface {
	Find(ctx context.Context, orderNumber string) (*host.Order, error)
	Update(ctx context.Context, orderNumber string, fn func(order *host.Order) error) (*host.Order, error)
}

type callbackHistory interface {
	ListByOrder(ctx context.Context, orderReference string, limit int32) ([]*entity.PaymentCallback, error)
}

// PaymentController binds the payment service to HTTP on behalf of the
// commerce host: gateway callbacks in, operator actions out.
type PaymentController struct {
	paymentService *service.PaymentService
	orders         orderStore
	history        callbackHistory
	publicBaseURL  string
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService, orders orderStore, publicBaseURL string) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		orders:         orders,
		publicBaseURL:  strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) WithCallbackHistory(history callbackHistory) *PaymentController {
	c.history = history
	return c
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok", Providers: c.paymentService.Providers()})
}

func (c *PaymentController) GetOrder(ctx echo.Context) error {
	req, err := types.NewOrderRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	order, err := c.orders.Find(ctx.Request().Context(), req.OrderNumber)
	if err != nil {
		return c.orderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, &types.OrderResponse{Order: order})
}

func (c *PaymentController) GenerateForm(ctx echo.Context) error {
	req, err := types.NewGenerateFormRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx := ctx.Request().Context()
	order, err := c.orders.Find(reqCtx, req.OrderNumber)
	if err != nil {
		return c.orderError(ctx, err)
	}

	urls := req.URLs()
	if urls.Callback == "" {
		urls.Callback = c.callbackURL(c.paymentService.ProviderAlias(order), order.OrderNumber)
	}

	result := c.paymentService.GenerateForm(reqCtx, order, urls)
	updated, err := c.orders.Update(reqCtx, order.OrderNumber, func(current *host.Order) error {
		current.MergeMetaData(result.MetaData)
		return nil
	})
	if err != nil {
		return c.orderError(ctx, err)
	}
	if result.Form.Action == "" {
		return c.writeError(ctx, http.StatusBadGateway, "payment form could not be generated")
	}

	return ctx.JSON(http.StatusOK, &types.FormResponse{Order: updated, Form: result.Form})
}

// HandleProviderCallback receives both legacy form posts and webhook events.
// Rejections get a generic body so nothing about the check leaks to the caller.
func (c *PaymentController) HandleProviderCallback(ctx echo.Context) error {
	req, err := types.NewOrderRequestFromContext(ctx)
	if err != nil || req.Validate() != nil {
		return c.writeError(ctx, http.StatusBadRequest, "callback rejected")
	}

	reqCtx := ctx.Request().Context()
	order, err := c.orders.Find(reqCtx, req.OrderNumber)
	if err != nil {
		return c.orderError(ctx, err)
	}
	if !strings.EqualFold(strings.TrimSpace(ctx.Param("provider")), c.paymentService.ProviderAlias(order)) {
		factory.LoggerWithContext(c.logger, ctx).WithField("order", order.OrderNumber).Warn("Callback provider does not match order")
		return c.writeError(ctx, http.StatusBadRequest, "callback rejected")
	}

	result := c.paymentService.ProcessCallback(reqCtx, order, webhook.NewDelivery(ctx.Request()))
	if result.Rejected() {
		return c.writeError(ctx, http.StatusBadRequest, "callback rejected")
	}

	if result.TransactionInfo != nil || len(result.MetaData) > 0 {
		_, err := c.orders.Update(reqCtx, order.OrderNumber, func(current *host.Order) error {
			current.ApplyTransaction(result.TransactionInfo)
			current.MergeMetaData(result.MetaData)
			return nil
		})
		if err != nil {
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Failed to apply callback to order")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.NoContent(result.HTTPStatus)
}

func (c *PaymentController) FetchStatus(ctx echo.Context) error {
	return c.runOperation(ctx, c.paymentService.FetchStatus)
}

func (c *PaymentController) Cancel(ctx echo.Context) error {
	return c.runOperation(ctx, c.paymentService.Cancel)
}

func (c *PaymentController) Capture(ctx echo.Context) error {
	return c.runOperation(ctx, c.paymentService.Capture)
}

func (c *PaymentController) Refund(ctx echo.Context) error {
	return c.runOperation(ctx, c.paymentService.Refund)
}

func (c *PaymentController) ListCallbacks(ctx echo.Context) error {
	if c.history == nil {
		return c.writeError(ctx, http.StatusNotFound, "callback journal is not configured")
	}
	req, err := types.NewCallbacksRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.history.ListByOrder(ctx.Request().Context(), req.OrderNumber, req.Limit)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List callbacks failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.CallbacksResponse{Callbacks: mapper.CallbacksToRecords(items)})
}

func (c *PaymentController) runOperation(ctx echo.Context, operation func(context.Context, *host.Order) host.APIResult) error {
	req, err := types.NewOrderRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx := ctx.Request().Context()
	order, err := c.orders.Find(reqCtx, req.OrderNumber)
	if err != nil {
		return c.orderError(ctx, err)
	}

	result := operation(reqCtx, order)
	if result.Empty() {
		return c.writeError(ctx, http.StatusBadGateway, "gateway operation failed")
	}

	changed := false
	updated, err := c.orders.Update(reqCtx, order.OrderNumber, func(current *host.Order) error {
		changed = current.ApplyUpdate(result.Transaction)
		current.MergeMetaData(result.MetaData)
		return nil
	})
	if err != nil {
		return c.orderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, &types.OperationResponse{Order: updated, Changed: changed})
}

func (c *PaymentController) callbackURL(alias, orderNumber string) string {
	if c.publicBaseURL == "" {
		return ""
	}
	return c.publicBaseURL + "/webhooks/providers/" + url.PathEscape(alias) + "/" + url.PathEscape(orderNumber)
}

func (c *PaymentController) orderError(ctx echo.Context, err error) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return c.writeError(ctx, http.StatusNotFound, "order not found")
	}
	factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Order lookup failed")
	return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
