package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quexa/spotmatch/internal/orders"
	apierrors "github.com/quexa/spotmatch/pkg/errors"
)

type createOrderRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Side   string `json:"side" validate:"required,oneof=buy sell"`
	Price  string `json:"price" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem := apierrors.NewValidationProblem("invalid request body: "+err.Error(), c.FullPath())
		c.JSON(problem.Status, problem)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		problem := apierrors.NewValidationProblem(err.Error(), c.FullPath())
		c.JSON(problem.Status, problem)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		problem := apierrors.NewValidationProblem("price must be a decimal number", c.FullPath())
		c.JSON(problem.Status, problem)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		problem := apierrors.NewValidationProblem("amount must be a decimal number", c.FullPath())
		c.JSON(problem.Status, problem)
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), currentUser(c), orders.CreateOrderRequest{
		Symbol: req.Symbol,
		Side:   req.Side,
		Price:  price,
		Amount: amount,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (s *Server) listOrders(c *gin.Context) {
	var filter orders.ListFilter
	if v := c.Query("symbol"); v != "" {
		filter.Symbol = &v
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("side"); v != "" {
		filter.Side = &v
	}

	list, err := s.orders.ListOrders(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (s *Server) cancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		problem := apierrors.NewValidationProblem("malformed order id", c.FullPath())
		c.JSON(problem.Status, problem)
		return
	}

	order, err := s.orders.CancelOrder(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (s *Server) getProfile(c *gin.Context) {
	userID := currentUser(c)

	user, err := s.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	holdings, err := s.assets.Holdings(c.Request.Context(), userID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"holdings": holdings,
	})
}

func (s *Server) serveWS(c *gin.Context) {
	if s.hub == nil {
		problem := apierrors.NewValidationProblem("websocket delivery is disabled", c.FullPath())
		c.JSON(http.StatusServiceUnavailable, problem)
		return
	}
	s.hub.ServeWS(c.Writer, c.Request, currentUser(c))
}
