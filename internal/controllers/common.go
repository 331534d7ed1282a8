package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/logger"
)

const dateLayout = "2006-01-02"

func httpLog() zerolog.Logger { return logger.WithComponent("http") }

// respondError maps service errors onto status codes. Unknown failures are
// logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var bv billing.ValidationErrors
	var av accounts.ValidationErrors
	switch {
	case errors.As(err, &bv):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The given data was invalid.", "errors": bv})
	case errors.As(err, &av):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The given data was invalid.", "errors": av})
	case errors.Is(err, billing.ErrAlreadyPaid),
		errors.Is(err, billing.ErrAlreadySettled),
		errors.Is(err, billing.ErrHasDependents),
		errors.Is(err, billing.ErrSaleImmutable),
		errors.Is(err, accounts.ErrEmailTaken):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": rootMessage(err)})
	case errors.Is(err, billing.ErrNotFound),
		errors.Is(err, accounts.ErrUserNotFound),
		errors.Is(err, analytics.ErrUnknownAdmin):
		c.JSON(http.StatusNotFound, gin.H{"message": rootMessage(err)})
	case errors.Is(err, billing.ErrForbidden), errors.Is(err, accounts.ErrNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"message": rootMessage(err)})
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, accounts.ErrInvalidCredentials),
		errors.Is(err, accounts.ErrInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"message": rootMessage(err)})
	case errors.Is(err, billing.ErrIdentifierExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": billing.ErrIdentifierExhausted.Error()})
	default:
		log := httpLog()
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// rootMessage drops the operation prefix added by billing.OpError.
func rootMessage(err error) string {
	for {
		var opErr *billing.OpError
		if !errors.As(err, &opErr) {
			return err.Error()
		}
		err = opErr.Err
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func invalid(c *gin.Context, field, msg string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  map[string][]string{field: {msg}},
	})
}

// actorOf returns the actor stored by the auth middleware.
func actorOf(c *gin.Context) auth.Actor {
	a, _ := auth.ActorFrom(c.Request.Context())
	return a
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseDate accepts YYYY-MM-DD; an empty value yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("unsupported date format, expected YYYY-MM-DD")
}

// dateRange reads the from/to query parameters as inclusive days and returns
// them as a half-open range.
func dateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	if v := c.Query("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			invalid(c, "from", err.Error())
			return nil, nil, false
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			invalid(c, "to", err.Error())
			return nil, nil, false
		}
		end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
		to = &end
	}
	return from, to, true
}

type page struct {
	limit  int
	offset int
}

func pageOf(c *gin.Context) page {
	p := page{limit: 50}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			p.limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.offset = n
		}
	}
	return p
}

func (p page) respond(c *gin.Context, items any, total int64) {
	hasNext := int64(p.offset+p.limit) < total
	nextOffset := p.offset + p.limit
	if !hasNext {
		nextOffset = p.offset
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"pagination": gin.H{
			"total":      total,
			"limit":      p.limit,
			"offset":     p.offset,
			"hasNext":    hasNext,
			"nextOffset": nextOffset,
		},
	})
}

func sendPDF(c *gin.Context, filename string, doc []byte) {
	disposition := "attachment"
	if c.Query("inline") == "1" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
