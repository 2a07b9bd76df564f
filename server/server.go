// Package server exposes the swap lifecycle over REST.
package server

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/Permissionless-Software-Foundation/avax-dex/swap"
	"github.com/buger/jsonparser"
	"github.com/gin-gonic/gin"
)

// Lifecycle is the part of the swap engine served over REST.
type Lifecycle interface {
	CreateOffer(ctx context.Context, body []byte) (string, error)
	ListOffers(ctx context.Context) ([]*entity.Offer, error)
	TakenOrder(ctx context.Context, offerHash string) (*entity.Order, error)
	AcceptOffer(ctx context.Context, orderHash string) (string, error)
	CreateOrder(ctx context.Context, entry []byte) (bool, error)
	ListOrders(ctx context.Context) ([]*entity.Order, error)
	TakeOrder(ctx context.Context, hash string) (string, error)
}

type handler struct {
	lifecycle Lifecycle
}

// NewHandler returns the router for l.
func NewHandler(l Lifecycle) *gin.Engine {
	h := &handler{lifecycle: l}

	r := gin.New()
	r.Use(gin.Recovery(), logRequest)

	r.POST("/offer", h.createOffer)
	r.GET("/offer/list", h.listOffers)
	r.POST("/offer/status", h.offerStatus)
	r.POST("/offer/accept", h.acceptOffer)

	r.POST("/order", h.createOrder)
	r.POST("/p2wdb", h.createOrder)
	r.GET("/order/list", h.listOrders)
	r.POST("/order/take", h.takeOrder)

	return r
}

// Serve runs the REST server on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}

	errc := make(chan error, 1)
	go func() {
		log.Printf("REST server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()
	log.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}

func (h *handler) createOffer(c *gin.Context) {
	body, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		abort(c, err)
		return
	}

	offer, dataType, _, err := jsonparser.Get(body, "offer")
	if err != nil || dataType != jsonparser.Object {
		abort(c, &entity.ValidationError{Field: "offer", Message: "Property 'offer' must be an object."})
		return
	}

	hash, err := h.lifecycle.CreateOffer(c.Request.Context(), offer)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hash": hash})
}

func (h *handler) listOffers(c *gin.Context) {
	offers, err := h.lifecycle.ListOffers(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *handler) offerStatus(c *gin.Context) {
	hash, ok := bindHash(c)
	if !ok {
		return
	}

	order, err := h.lifecycle.TakenOrder(c.Request.Context(), hash)
	if err != nil {
		abort(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusOK, gin.H{"order": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *handler) acceptOffer(c *gin.Context) {
	hash, ok := bindHash(c)
	if !ok {
		return
	}

	txID, err := h.lifecycle.AcceptOffer(c.Request.Context(), hash)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"txid": txID})
}

func (h *handler) createOrder(c *gin.Context) {
	body, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		abort(c, err)
		return
	}

	created, err := h.lifecycle.CreateOrder(c.Request.Context(), body)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.lifecycle.ListOrders(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handler) takeOrder(c *gin.Context) {
	hash, ok := bindHash(c)
	if !ok {
		return
	}

	newHash, err := h.lifecycle.TakeOrder(c.Request.Context(), hash)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hash": newHash})
}

type hashRequest struct {
	Hash string `json:"hash"`
}

func bindHash(c *gin.Context) (string, bool) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Hash == "" {
		abort(c, &entity.ValidationError{Field: "hash", Message: "Property 'hash' must be a string."})
		return "", false
	}
	return req.Hash, true
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	var validation *entity.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, swap.ErrInsufficientFunds), errors.Is(err, swap.ErrInsufficientUTXO):
		return http.StatusPaymentRequired
	case errors.Is(err, swap.ErrInvalidTransition),
		errors.Is(err, swap.ErrIntegrityViolation),
		errors.Is(err, swap.ErrStaleReference):
		return http.StatusConflict
	case errors.Is(err, swap.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
