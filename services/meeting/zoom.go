package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mindhaven/metrics"
	"mindhaven/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ZoomConfig holds server-to-server OAuth app credentials.
type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	TokenURL     string
}

const zoomHTTPTimeout = 30 * time.Second

// ZoomProvisioner schedules Zoom meetings through the REST API.
type ZoomProvisioner struct {
	baseURL string
	cc      *clientcredentials.Config
	client  *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewZoomProvisioner returns a provisioner that fetches account-credentials tokens on
// demand. Token requests run under the caller's context, like API calls.
func NewZoomProvisioner(cfg ZoomConfig) *ZoomProvisioner {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	return &ZoomProvisioner{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		cc:      cc,
		client:  &http.Client{Timeout: zoomHTTPTimeout},
	}
}

// accessToken returns the cached token, fetching a new one once it expires.
func (z *ZoomProvisioner) accessToken(ctx context.Context) (*oauth2.Token, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.token.Valid() {
		return z.token, nil
	}
	tok, err := z.cc.Token(context.WithValue(ctx, oauth2.HTTPClient, z.client))
	if err != nil {
		return nil, fmt.Errorf("zoom: fetch token: %w", err)
	}
	z.token = tok
	return tok, nil
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
	ApprovalType   int  `json:"approval_type"`
}

type zoomMeetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	Password string `json:"password"`
}

type zoomRegistrant struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

func (z *ZoomProvisioner) Provision(ctx context.Context, title string, durationMinutes int, start time.Time) (*models.Meeting, error) {
	began := time.Now()
	m, err := z.provision(ctx, title, durationMinutes, start)
	metrics.RecordProvisioning("zoom", time.Since(began), err)
	return m, err
}

func (z *ZoomProvisioner) provision(ctx context.Context, title string, durationMinutes int, start time.Time) (*models.Meeting, error) {
	req := zoomMeetingRequest{
		Topic:     title,
		Type:      2, // scheduled meeting
		StartTime: start.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  durationMinutes,
		Timezone:  "UTC",
		Settings: zoomMeetingSettings{
			WaitingRoom:  true,
			ApprovalType: 0, // registrants are approved automatically
		},
	}

	var resp zoomMeetingResponse
	if err := z.do(ctx, http.MethodPost, "/users/me/meetings", req, &resp); err != nil {
		return nil, err
	}
	if resp.JoinURL == "" {
		return nil, fmt.Errorf("zoom: meeting %d has no join url", resp.ID)
	}
	return &models.Meeting{
		ID:       strconv.FormatInt(resp.ID, 10),
		JoinURL:  resp.JoinURL,
		Password: resp.Password,
	}, nil
}

func (z *ZoomProvisioner) AddParticipants(ctx context.Context, meetingID string, emails []string) error {
	for _, email := range emails {
		if email == "" {
			continue
		}
		reg := zoomRegistrant{Email: email, FirstName: strings.SplitN(email, "@", 2)[0]}
		path := "/meetings/" + url.PathEscape(meetingID) + "/registrants"
		if err := z.do(ctx, http.MethodPost, path, reg, nil); err != nil {
			return fmt.Errorf("add registrant: %w", err)
		}
	}
	return nil
}

// Release deletes a meeting that was provisioned for a booking which never confirmed.
func (z *ZoomProvisioner) Release(ctx context.Context, meetingID string) error {
	if err := z.do(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(meetingID), nil, nil); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}

func (z *ZoomProvisioner) do(ctx context.Context, method, path string, body, out any) error {
	tok, err := z.accessToken(ctx)
	if err != nil {
		return err
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("zoom: encode request: %w", err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, z.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("zoom: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok.SetAuthHeader(req)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zoom: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("zoom: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zoom: decode response: %w", err)
	}
	return nil
}
