package cardsetup

import (
	"context"
	"net/http"

	"tutor-billing/internal/api/respond"
	"tutor-billing/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Setup(ctx context.Context, req payments.SetupRequest) (*payments.SetupResult, error)
}

type Handler struct {
	Service Service
	Log     *zap.Logger
}

type request struct {
	StudentID string `json:"studentId" binding:"required"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// Create handles POST /card-setup.
func (h *Handler) Create(c *gin.Context) {
	var body request
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "studentId is required"})
		return
	}
	studentID, err := uuid.Parse(body.StudentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "studentId must be a uuid"})
		return
	}

	res, err := h.Service.Setup(c.Request.Context(), payments.SetupRequest{
		StudentID: studentID,
		Email:     body.Email,
		Name:      body.Name,
	})
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
