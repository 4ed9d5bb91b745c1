// Package email dispatches calendar invitations over SES as MIME messages
// with an iCalendar REQUEST attachment.
package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	appErrors "calbook-backend/pkg/errors"
)

// sesAPI is the subset of the SES client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESInvitationSender sends invitation emails through SES. The sender
// address is resolved from the parameter store per dispatch.
type SESInvitationSender struct {
	client    sesAPI
	params    ports.ParameterStore
	fromParam string
	logger    *zap.Logger
}

// NewSESInvitationSender creates an SES-backed invitation sender.
func NewSESInvitationSender(client *sesv2.Client, params ports.ParameterStore, fromParam string, logger *zap.Logger) *SESInvitationSender {
	return &SESInvitationSender{
		client:    client,
		params:    params,
		fromParam: fromParam,
		logger:    logger,
	}
}

// SendInvitation builds the MIME message with its .ics attachment and
// sends it as a raw SES message.
func (s *SESInvitationSender) SendInvitation(ctx context.Context, inv ports.Invitation) error {
	from, err := s.params.GetParameter(ctx, s.fromParam)
	if err != nil {
		return err
	}

	raw, err := buildMessage(from, inv)
	if err != nil {
		return appErrors.NewExternalError("ses", err)
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{inv.ToEmail},
		},
		Content: &sestypes.EmailContent{
			Raw: &sestypes.RawMessage{Data: raw},
		},
	})
	if err != nil {
		s.logger.Error("invitation email send failed",
			zap.String("to", inv.ToEmail),
			zap.String("series_uid", inv.SeriesUID),
			zap.Error(err),
		)
		return appErrors.NewExternalError("ses", err)
	}

	s.logger.Info("invitation email sent",
		zap.String("to", inv.ToEmail),
		zap.String("series_uid", inv.SeriesUID),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

// buildMessage assembles the multipart MIME payload: a plain-text body and
// a base64 text/calendar attachment.
func buildMessage(from string, inv ports.Invitation) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", inv.ToEmail)
	fmt.Fprintf(&buf, "Subject: Calendar Invitation: %s\r\n", inv.Summary)
	fmt.Fprintf(&buf, "Message-ID: <%s@calbook>\r\n", uuid.NewString())
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(textPart, bodyTemplate,
		inv.Summary,
		inv.Start.Format("2006-01-02 15:04"),
		inv.End.Format("2006-01-02 15:04"),
		inv.Location,
		inv.Description,
	)

	icsHeader := textproto.MIMEHeader{}
	icsHeader.Set("Content-Type", `text/calendar; method=REQUEST; name="invite.ics"`)
	icsHeader.Set("Content-Transfer-Encoding", "base64")
	icsHeader.Set("Content-Disposition", `attachment; filename="invite.ics"`)
	icsPart, err := mw.CreatePart(icsHeader)
	if err != nil {
		return nil, err
	}
	payload := BuildInvitationICS(from, inv, time.Now())
	if _, err := icsPart.Write([]byte(base64.StdEncoding.EncodeToString([]byte(payload)))); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const bodyTemplate = `You have been invited to the following event:

Event: %s
Date: %s - %s
Location: %s

Description:
%s

This invitation has been added as a calendar attachment. Please accept or decline using your calendar application.
`

// BuildInvitationICS renders the .ics REQUEST payload. The event carries
// the series UID so receiving clients associate the invite with the right
// series, plus a RECURRENCE-ID marker when the invite targets one instance
// of a recurring series.
func BuildInvitationICS(organizer string, inv ports.Invitation, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId("-//Calendar Booking System//EN")
	cal.SetMethod(ics.MethodRequest)

	ev := cal.AddEvent(inv.SeriesUID)
	ev.SetSummary(inv.Summary)
	ev.SetDescription(inv.Description)
	ev.SetLocation(inv.Location)
	ev.SetStartAt(inv.Start)
	ev.SetEndAt(inv.End)
	ev.SetDtStampTime(now)
	ev.SetStatus(ics.ObjectStatusConfirmed)
	ev.SetOrganizer("mailto:" + organizer)
	ev.AddAttendee(inv.ToEmail,
		ics.CalendarUserTypeIndividual,
		ics.ParticipationStatusNeedsAction,
		ics.ParticipationRoleReqParticipant,
		&ics.KeyValues{Key: "RSVP", Value: []string{"TRUE"}},
	)

	if !inv.RecurrenceDate.IsZero() {
		ev.SetProperty(ics.ComponentProperty("RECURRENCE-ID"), inv.RecurrenceDate.Format("20060102"))
	}

	return cal.Serialize()
}
