package loanform

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/ui"
)

const msgBlocked = "la solicitud tiene campos no válidos"

type Handler struct{ doc *ui.Document }

func RegisterRoutes(r gin.IRoutes, doc *ui.Document) {
	h := &Handler{doc: doc}

	// ページ操作
	r.GET("/form", h.GetForm)
	r.PUT("/form/fields/:id", h.PutField)
	r.POST("/form/submit", h.SubmitForm)

	// 一括送信
	r.POST("/loans", h.CreateLoan)
}

// ---------- handlers ----------

// GET /form
func (h *Handler) GetForm(c *gin.Context) {
	c.JSON(http.StatusOK, h.doc.Snapshot())
}

// PUT /form/fields/:id
func (h *Handler) PutField(c *gin.Context) {
	var in FieldInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, loans.ErrorBody(loans.CodeInvalidArgument, "invalid json: "+err.Error()))
		return
	}
	if in.Value == nil {
		c.JSON(http.StatusBadRequest, loans.ErrorBody(loans.CodeInvalidArgument, "value is required"))
		return
	}
	snap, err := h.doc.InputSnapshot(c.Request.Context(), c.Param("id"), *in.Value)
	if err != nil {
		writePageError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// POST /form/submit
func (h *Handler) SubmitForm(c *gin.Context) {
	out, err := SubmitPage(c.Request.Context(), h.doc)
	if err != nil {
		writePageError(c, err)
		return
	}
	writeOutcome(c, out)
}

// POST /loans
func (h *Handler) CreateLoan(c *gin.Context) {
	var in LoanRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, loans.ErrorBody(loans.CodeInvalidArgument, "invalid json: "+err.Error()))
		return
	}
	out, err := SubmitRequest(c.Request.Context(), h.doc, in)
	if err != nil {
		writePageError(c, err)
		return
	}
	writeOutcome(c, out)
}

// ---------- helpers ----------

func writeOutcome(c *gin.Context, out Outcome) {
	if out.Accepted() {
		c.JSON(http.StatusCreated, AcceptedResponse{Record: *out.Record, Page: out.Page})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, RejectedResponse{
		ErrorDTO: loans.ErrorBody(loans.CodeUnprocessable, msgBlocked),
		Fields:   out.Fields,
		Page:     out.Page,
	})
}

func writePageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ui.ErrNoElement):
		c.JSON(http.StatusNotFound, loans.ErrorBody(loans.CodeNotFound, err.Error()))
	case errors.Is(err, ui.ErrNotInput):
		c.JSON(http.StatusBadRequest, loans.ErrorBody(loans.CodeInvalidArgument, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, loans.ErrorBody(loans.CodeInternal, err.Error()))
	}
}
