package loans

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 貸出ログ（読み取りのみ）
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/export", h.ExportLoans)
}

// ---------- handlers ----------

// GET /loans?student_id=&book_id=&limit=&offset=
func (h *Handler) ListLoans(c *gin.Context) {
	q := ListQuery{
		StudentID: c.Query("student_id"),
		BookID:    c.Query("book_id"),
		Limit:     parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset:    parseIntDefault(c.Query("offset"), 0),
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(res.Total))
	c.JSON(http.StatusOK, res)
}

// GET /loans/export?encoding=utf-8|windows-1252
func (h *Handler) ExportLoans(c *gin.Context) {
	encoding, err := CanonicalEncoding(c.DefaultQuery("encoding", EncodingUTF8))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), &buf, encoding); err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="prestamos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset="+encoding, buf.Bytes())
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
