package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSource lê jogos de um feed no formato da The Odds API (v4 /odds, h2h, odds americanas)
type HTTPSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPSource(baseURL, apiKey string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, apiKey: apiKey, httpClient: client}
}

func (s *HTTPSource) Name() string { return "http" }

type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string `json:"key"`
	Outcomes []struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"outcomes"`
}

func (s *HTTPSource) requestURL() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse fixtures url: %w", err)
	}
	q := u.Query()
	if s.apiKey != "" {
		q.Set("apiKey", s.apiKey)
	}
	q.Set("regions", "us")
	q.Set("markets", "h2h")
	q.Set("oddsFormat", "american")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Fixture, error) {
	target, err := s.requestURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixtures API returned %d", resp.StatusCode)
	}

	var events []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	out := make([]Fixture, 0, len(events))
	for _, e := range events {
		home, away, ok := h2hPrices(e)
		if !ok {
			continue
		}
		out = append(out, Fixture{
			SourceID:  e.ID,
			Home:      e.HomeTeam,
			Away:      e.AwayTeam,
			HomeOdds:  home,
			AwayOdds:  away,
			StartTime: e.CommenceTime.UTC(),
		})
	}
	return out, nil
}

// h2hPrices usa o primeiro bookmaker com mercado h2h cotando os dois times
func h2hPrices(e apiEvent) (home, away float64, ok bool) {
	for _, b := range e.Bookmakers {
		for _, m := range b.Markets {
			if m.Key != "h2h" {
				continue
			}
			var gotHome, gotAway bool
			for _, o := range m.Outcomes {
				switch {
				case strings.EqualFold(o.Name, e.HomeTeam):
					home, gotHome = o.Price, true
				case strings.EqualFold(o.Name, e.AwayTeam):
					away, gotAway = o.Price, true
				}
			}
			if gotHome && gotAway {
				return home, away, true
			}
		}
	}
	return 0, 0, false
}
