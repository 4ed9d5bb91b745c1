package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/application/services"
	"calbook-backend/domain/calendar"
	"calbook-backend/infrastructure/config"
	"calbook-backend/pkg/common"
	appErrors "calbook-backend/pkg/errors"
	"calbook-backend/pkg/payment"
	"calbook-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// eventIDPrefix marks the occurrence identifier inside the payment order's
// additional description field.
const eventIDPrefix = "event_id: "

// EventHandler serves the listing and invitation endpoints.
type EventHandler struct {
	feed        ports.FeedSource
	listing     *services.ListingService
	invitations *services.InvitationService
	params      ports.ParameterStore
	cfg         *config.Config
	logger      *zap.Logger
}

// NewEventHandler creates an event handler.
func NewEventHandler(
	feed ports.FeedSource,
	listing *services.ListingService,
	invitations *services.InvitationService,
	params ports.ParameterStore,
	cfg *config.Config,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		feed:        feed,
		listing:     listing,
		invitations: invitations,
		params:      params,
		cfg:         cfg,
		logger:      logger,
	}
}

// EventResponse is the wire form of one occurrence.
type EventResponse struct {
	ID                string    `json:"id"`
	Summary           string    `json:"summary"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	Start             EventTime `json:"start"`
	End               EventTime `json:"end"`
	NumberOfAttendees *int      `json:"number_of_attendees,omitempty"`
}

// EventTime carries an ISO start or end value.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// OrderNotification is the payment provider's POST body. Only the fields
// the invitation flow needs are declared; the provider sends many more.
type OrderNotification struct {
	Order struct {
		AdditionalDescription string `json:"additionalDescription"`
		Status                string `json:"status" validate:"required"`
		Buyer                 struct {
			Email string `json:"email" validate:"required,email"`
		} `json:"buyer"`
	} `json:"order" validate:"required"`
}

// ListEvents handles GET /events?date=YYYY-MM-DD: the next occurrences
// from that date with their participant counts.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		common.RespondAppError(w, appErrors.NewValidationError("date query parameter is required"))
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		common.RespondAppError(w, appErrors.NewValidationError("invalid date format, use YYYY-MM-DD"))
		return
	}

	feed, err := h.feed.FetchFeed(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items, err := h.listing.ListUpcoming(r.Context(), feed, date, h.cfg.ListingCount)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	events := make([]EventResponse, 0, len(items))
	for _, item := range items {
		resp := toEventResponse(item.ID, item.Occurrence)
		count := item.ParticipantCount
		resp.NumberOfAttendees = &count
		events = append(events, resp)
	}

	// Counts change as invitations land; intermediaries must not cache.
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	common.RespondJSON(w, http.StatusOK, events)
}

// InviteResponse is the POST success body.
type InviteResponse struct {
	Message          string        `json:"message"`
	Event            EventResponse `json:"event"`
	Email            string        `json:"email"`
	ParticipantCount int           `json:"participant_count"`
}

// Invite handles POST /invitations: a completed payment order notification
// naming an occurrence identifier and a buyer email.
func (h *EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		common.RespondAppError(w, appErrors.NewValidationError("unreadable request body"))
		return
	}

	if h.cfg.EnablePaymentSignature {
		if err := h.verifySignature(r, body); err != nil {
			common.RespondAppError(w, err)
			return
		}
	}

	var notification OrderNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		common.RespondAppError(w, appErrors.NewValidationError("invalid JSON body"))
		return
	}
	if err := utils.ValidateStruct(notification); err != nil {
		common.RespondAppError(w, appErrors.NewValidationError(err.Error()))
		return
	}

	eventID := extractEventID(notification.Order.AdditionalDescription)
	if eventID == "" {
		common.RespondAppError(w, appErrors.NewValidationError("event_id is required in the order description"))
		return
	}

	if notification.Order.Status != "COMPLETED" {
		common.RespondAppError(w, appErrors.NewValidationError("order status must be COMPLETED to invite to event"))
		return
	}

	feed, err := h.feed.FetchFeed(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	result, err := h.invitations.Invite(r.Context(), feed, eventID, notification.Order.Buyer.Email)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, InviteResponse{
		Message:          "Invitation sent successfully",
		Event:            toEventResponse(eventID, result.Occurrence),
		Email:            notification.Order.Buyer.Email,
		ParticipantCount: result.ParticipantCount,
	})
}

func (h *EventHandler) verifySignature(r *http.Request, body []byte) error {
	secondKey, err := h.params.GetParameter(r.Context(), h.cfg.SignatureParam)
	if err != nil {
		return err
	}
	if err := payment.VerifyNotification(body, r.Header.Get(payment.SignatureHeader), secondKey); err != nil {
		h.logger.Warn("payment notification signature rejected", zap.Error(err))
		return appErrors.NewForbiddenError("invalid payment signature")
	}
	return nil
}

// extractEventID pulls the occurrence identifier out of the order's
// additional description.
func extractEventID(description string) string {
	if !strings.Contains(description, eventIDPrefix) {
		return ""
	}
	parts := strings.Split(description, eventIDPrefix)
	return strings.TrimSpace(parts[len(parts)-1])
}

func toEventResponse(id string, occ calendar.Occurrence) EventResponse {
	return EventResponse{
		ID:          id,
		Summary:     occ.Summary,
		Description: occ.Description,
		Location:    occ.Location,
		Start:       EventTime{DateTime: formatEventTime(occ.Start, occ.StartIsDate)},
		End:         EventTime{DateTime: formatEventTime(occ.End, occ.EndIsDate)},
	}
}

func formatEventTime(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}
