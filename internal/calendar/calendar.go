// Package calendar bridges LifeOS to Google Calendar: the OAuth token flow
// plus event CRUD, with per-user tokens persisted through a TokenStore.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"lifeos/internal/model"
)

// ErrNotConnected means the user has not completed the OAuth flow.
var ErrNotConnected = errors.New("calendar: not connected")

const revokeURL = "https://oauth2.googleapis.com/revoke"

// TokenStore persists one OAuth token per user.
type TokenStore interface {
	Save(ctx context.Context, tok *model.CalendarToken) error
	Find(ctx context.Context, userID string) (*model.CalendarToken, error)
	Delete(ctx context.Context, userID string) error
}

// EventTime is a point in time with its zone, as the Calendar API expects.
type EventTime struct {
	DateTime string `json:"date_time"`
	TimeZone string `json:"time_zone"`
}

// EventDescriptor is the event shape the decks build.
type EventDescriptor struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// Bridge is the Google Calendar client. All operations act on the user's
// primary calendar.
type Bridge struct {
	oauth  *oauth2.Config
	tokens TokenStore
	log    *zap.Logger
}

func NewBridge(clientID, clientSecret, redirectURL string, tokens TokenStore, log *zap.Logger) *Bridge {
	return &Bridge{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		tokens: tokens,
		log:    log,
	}
}

// AuthURL starts the sign-in flow. Offline access so we get a refresh token.
func (b *Bridge) AuthURL(state string) string {
	return b.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange completes the sign-in flow and stores the user's token.
func (b *Bridge) Exchange(ctx context.Context, userID, code string) error {
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	return b.tokens.Save(ctx, &model.CalendarToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	})
}

// Connected reports whether the user has a stored token.
func (b *Bridge) Connected(ctx context.Context, userID string) bool {
	_, err := b.tokens.Find(ctx, userID)
	return err == nil
}

func (b *Bridge) ListEvents(ctx context.Context, userID string, timeMin time.Time, maxResults int64) ([]*gcal.Event, error) {
	srv, err := b.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	if timeMin.IsZero() {
		timeMin = time.Now()
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	events, err := srv.Events.List("primary").
		TimeMin(timeMin.Format(time.RFC3339)).
		ShowDeleted(false).
		SingleEvents(true).
		MaxResults(maxResults).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events.Items, nil
}

func (b *Bridge) CreateEvent(ctx context.Context, userID string, desc EventDescriptor) (*gcal.Event, error) {
	srv, err := b.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	event, err := srv.Events.Insert("primary", toEvent(desc)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (b *Bridge) UpdateEvent(ctx context.Context, userID, eventID string, desc EventDescriptor) (*gcal.Event, error) {
	srv, err := b.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	event, err := srv.Events.Update("primary", eventID, toEvent(desc)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (b *Bridge) DeleteEvent(ctx context.Context, userID, eventID string) error {
	srv, err := b.service(ctx, userID)
	if err != nil {
		return err
	}
	if err := srv.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// SignOut drops the stored token. Revocation is best effort; the local delete
// is what disconnects the account from LifeOS.
func (b *Bridge) SignOut(ctx context.Context, userID string) error {
	tok, err := b.tokens.Find(ctx, userID)
	if err == nil {
		b.revoke(ctx, tok.AccessToken)
	}
	return b.tokens.Delete(ctx, userID)
}

func (b *Bridge) revoke(ctx context.Context, accessToken string) {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		b.log.Warn("token revoke failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (b *Bridge) service(ctx context.Context, userID string) (*gcal.Service, error) {
	stored, err := b.tokens.Find(ctx, userID)
	if err != nil {
		return nil, ErrNotConnected
	}
	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	srv, err := gcal.NewService(ctx, option.WithTokenSource(b.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return srv, nil
}

func toEvent(desc EventDescriptor) *gcal.Event {
	return &gcal.Event{
		Summary:     desc.Summary,
		Description: desc.Description,
		Start: &gcal.EventDateTime{
			DateTime: desc.Start.DateTime,
			TimeZone: desc.Start.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: desc.End.DateTime,
			TimeZone: desc.End.TimeZone,
		},
	}
}
