package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/reconcile"
)

// errMethodNotAllowed is returned for anything but POST.
var errMethodNotAllowed = errors.New("method not allowed")

// Dispatcher processes one change event.
type Dispatcher interface {
	Handle(ctx context.Context, ev model.ChangeEvent) (reconcile.Outcome, error)
}

// Handler receives row-change deliveries from the database trigger.
type Handler struct {
	dispatcher Dispatcher
	table      string
}

// NewHandler creates a Handler. Events for tables other than table are
// acknowledged and ignored; an empty table accepts all.
func NewHandler(dispatcher Dispatcher, table string) *Handler {
	return &Handler{dispatcher: dispatcher, table: table}
}

// Receive handles POST {type, table, record, old_record}.
func (h *Handler) Receive(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
		return respondError(c, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}

	var ev model.ChangeEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&ev); err != nil {
		return respondError(c, http.StatusInternalServerError,
			fmt.Errorf("parsing payload: %w", err))
	}

	// The caller hanging up must not stop a date halfway through its
	// cancel-and-rebook sequence.
	ctx := context.WithoutCancel(c.Request().Context())
	ctx = logger.With(ctx, "event", string(ev.Type))
	if h.table != "" && ev.Table != "" && ev.Table != h.table {
		logger.DebugLog(ctx, "ignoring change on table %q", ev.Table)
		return respondSuccess(c)
	}

	if _, err := h.dispatcher.Handle(ctx, ev); err != nil {
		return respondError(c, http.StatusInternalServerError, err)
	}
	return respondSuccess(c)
}
