package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quexa/spotmatch/internal/database"
	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/internal/orders"
	apierrors "github.com/quexa/spotmatch/pkg/errors"
)

// renderError maps a domain error onto its RFC 7807 response.
func (s *Server) renderError(c *gin.Context, err error) {
	instance := c.FullPath()

	var problem *apierrors.ProblemDetails
	switch {
	case errors.Is(err, orders.ErrValidation):
		problem = apierrors.NewValidationProblem(err.Error(), instance)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		problem = apierrors.NewInsufficientFundsProblem(err.Error(), instance)
	case errors.Is(err, ledger.ErrInsufficientAsset):
		problem = apierrors.NewInsufficientAssetProblem(err.Error(), instance)
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		problem = apierrors.NewNotFoundProblem(err.Error(), instance)
	case errors.Is(err, orders.ErrInvalidState):
		problem = apierrors.NewInvalidStateProblem(err.Error(), instance)
	case errors.Is(err, database.ErrConcurrencyAbort):
		problem = apierrors.NewConcurrencyProblem("a concurrent operation interfered, retry the request", instance)
	default:
		s.logger.Error("Unhandled error", zap.String("path", instance), zap.Error(err))
		problem = apierrors.NewInternalProblem(instance)
	}

	c.JSON(problem.Status, problem)
}
