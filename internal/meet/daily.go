package meet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	dailyRoomsURL  = "https://api.daily.co/v1/rooms"
	dailyTimeout   = 10 * time.Second
	dailyRoomGrace = 24 * time.Hour
)

// DailyProvider creates temporary public rooms through the Daily.co REST
// API. Rooms expire on their own after 24 hours.
type DailyProvider struct {
	apiKey string
	client *http.Client

	// baseURL is overridable for tests.
	baseURL string
}

func NewDailyProvider(apiKey string) *DailyProvider {
	return &DailyProvider{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: dailyTimeout},
		baseURL: dailyRoomsURL,
	}
}

func (p *DailyProvider) Name() string {
	return "daily"
}

type dailyRoomRequest struct {
	Name       string              `json:"name"`
	Privacy    string              `json:"privacy"`
	Properties dailyRoomProperties `json:"properties"`
}

type dailyRoomProperties struct {
	EnablePrejoinUI   bool  `json:"enable_prejoin_ui"`
	EnableNetworkUI   bool  `json:"enable_network_ui"`
	EnableScreenshare bool  `json:"enable_screenshare"`
	EnableChat        bool  `json:"enable_chat"`
	Exp               int64 `json:"exp"`
}

type dailyRoomResponse struct {
	URL string `json:"url"`
}

func (p *DailyProvider) CreateRoom(ctx context.Context) (string, error) {
	roomName := fmt.Sprintf("myc-roast-%s", uuid.NewString())

	body, err := json.Marshal(dailyRoomRequest{
		Name:    roomName,
		Privacy: "public",
		Properties: dailyRoomProperties{
			EnablePrejoinUI:   false,
			EnableNetworkUI:   false,
			EnableScreenshare: true,
			EnableChat:        true,
			Exp:               time.Now().Add(dailyRoomGrace).Unix(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("daily room creation failed")
		return "", fmt.Errorf("daily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().
			Int("status", resp.StatusCode).
			Str("detail", string(detail)).
			Dur("elapsed", elapsed).
			Msg("daily room creation rejected")
		return "", fmt.Errorf("daily API error: status %d", resp.StatusCode)
	}

	var room dailyRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("decode room response: %w", err)
	}
	if room.URL == "" {
		return "", fmt.Errorf("daily API returned empty room url")
	}

	log.Debug().Str("room", roomName).Dur("elapsed", elapsed).Msg("daily room created")
	return room.URL, nil
}
