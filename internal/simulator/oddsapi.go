package simulator

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/radieske/sports-wager-ledger/pkg/oddsmath"
)

type oddsAPIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIBookmaker struct {
	Key     string          `json:"key"`
	Markets []oddsAPIMarket `json:"markets"`
}

type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

// OddsAPIHandler serve a última rodada como GET /v4/sports/{sport}/odds
// Odds saem em formato americano, como pedido por oddsFormat=american
func OddsAPIHandler(feed *Feed, sportKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest := feed.Latest()
		out := make([]oddsAPIEvent, 0, len(latest))
		for _, u := range latest {
			home, err := oddsmath.DecimalToAmerican(u.Odds.Home)
			if err != nil {
				continue
			}
			away, err := oddsmath.DecimalToAmerican(u.Odds.Away)
			if err != nil {
				continue
			}
			out = append(out, oddsAPIEvent{
				ID:           u.EventID,
				SportKey:     sportKey,
				CommenceTime: u.StartTime,
				HomeTeam:     u.HomeTeam,
				AwayTeam:     u.AwayTeam,
				Bookmakers: []oddsAPIBookmaker{{
					Key: u.Source,
					Markets: []oddsAPIMarket{{
						Key: "h2h",
						Outcomes: []oddsAPIOutcome{
							{Name: u.HomeTeam, Price: home},
							{Name: u.AwayTeam, Price: away},
						},
					}},
				}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
