package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ordeneslab/orders-service/internal/events"
	ord "github.com/ordeneslab/orders-service/internal/order"
)

func createOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if len(req.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
			return
		}
		for _, it := range req.Items {
			if it.ProductID == "" || it.Quantity <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "each item needs a product_id and a positive quantity"})
				return
			}
		}

		o, session, err := svc.Create(c.Request.Context(), req)
		if err != nil && !errors.Is(err, ord.ErrSessionUnavailable) {
			writeError(c, err)
			return
		}

		resp := gin.H{"order": o, "payment_session": session}
		if session == nil {
			// Order is persisted and PENDING; the caller may retry via
			// POST /orders/:id/payment-session.
			resp["session_error"] = err.Error()
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func listOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err1 := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, err2 := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page and limit must be integers"})
			return
		}

		p := ord.Pagination{Page: page, Limit: limit}
		if raw := c.Query("status"); raw != "" {
			st, err := ord.ParseStatus(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			p.Status = &st
		}

		result, err := svc.FindAll(c.Request.Context(), p)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.FindOne(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		status, err := ord.ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func retryPaymentSessionHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.RetryPaymentSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"payment_session": session})
	}
}

func deleteOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// paymentWebhookHandler is the HTTP twin of the kafka consumer for
// payment.succeeded notifications.
func paymentWebhookHandler(svc *ord.Service, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		if secret != "" && !validSignature(body, c.GetHeader("X-Payment-Signature"), secret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		var event events.PaymentSucceeded
		if err := json.Unmarshal(body, &event); err != nil || event.OrderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment event"})
			return
		}

		o, err := svc.ConfirmPayment(c.Request.Context(), event.OrderID, event.ChargeReference, event.ReceiptURL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func validSignature(body []byte, header, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ord.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ord.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ord.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ord.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ord.ErrSessionUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
