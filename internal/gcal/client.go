// Package gcal mirrors confirmed appointments into a Google Calendar.
// Sync is best effort: bookings never fail because the calendar is down.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/scheduling"
)

// Client writes booking events to an external calendar.
type Client interface {
	UpsertEvent(ctx context.Context, a appointments.Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// GoogleClient implements Client against the Google Calendar API.
type GoogleClient struct {
	svc        *calendar.Service
	calendarID string
}

// NewGoogleClient builds a calendar client from service-account credentials
// JSON. calendarID defaults to "primary".
func NewGoogleClient(ctx context.Context, credentialsJSON, calendarID string) (*GoogleClient, error) {
	if strings.TrimSpace(credentialsJSON) == "" {
		return nil, errors.New("gcal: credentials JSON is required")
	}
	if strings.TrimSpace(calendarID) == "" {
		calendarID = "primary"
	}
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)),
		option.WithScopes(calendar.CalendarEventsScope))
	if err != nil {
		return nil, fmt.Errorf("gcal: create calendar service: %w", err)
	}
	return &GoogleClient{svc: svc, calendarID: calendarID}, nil
}

// UpsertEvent creates or updates the event backing an appointment and
// returns the event id.
func (c *GoogleClient) UpsertEvent(ctx context.Context, a appointments.Appointment) (string, error) {
	event, err := buildEvent(a)
	if err != nil {
		return "", err
	}

	if a.CalendarEventID != "" {
		updated, err := c.svc.Events.Update(c.calendarID, a.CalendarEventID, event).Context(ctx).Do()
		if err == nil {
			return updated.Id, nil
		}
		// Fall through to insert when the event was deleted out from
		// under us.
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event. A missing event is not an error.
func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return nil
	}
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcal: delete event: %w", err)
	}
	return nil
}

func buildEvent(a appointments.Appointment) (*calendar.Event, error) {
	day, err := scheduling.ParseDate(a.Date)
	if err != nil {
		return nil, fmt.Errorf("gcal: appointment %s: %w", a.ID, err)
	}
	tod, err := scheduling.ParseTimeOfDay(a.Time)
	if err != nil {
		return nil, fmt.Errorf("gcal: appointment %s: %w", a.ID, err)
	}
	start := day.At(tod)
	end := start.Add(time.Duration(a.TotalDurationMinutes) * time.Minute)

	names := make([]string, 0, len(a.Procedures))
	for _, p := range a.Procedures {
		names = append(names, p.Name)
	}

	description := strings.Join(names, ", ")
	if a.Notes != "" {
		description += "\n" + a.Notes
	}

	return &calendar.Event{
		Summary:     a.CustomerName + " - " + strings.Join(names, ", "),
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}, nil
}
