package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StartingBalance int64 = 1000
	MinimumStake    int64 = 10
	DailyBonus      int64 = 100
	DailyCooldown         = 24 * time.Hour

	LoanMin int64 = 10
	LoanMax int64 = 100
)

// Team identifica o lado escolhido numa aposta ou o vencedor de um jogo
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// ParseTeam aceita "home"/"away" em qualquer caixa
func ParseTeam(s string) (Team, bool) {
	switch Team(strings.ToLower(strings.TrimSpace(s))) {
	case TeamHome:
		return TeamHome, true
	case TeamAway:
		return TeamAway, true
	}
	return "", false
}

// Item é um power-up consumível do inventário
type Item string

const (
	ItemMultiplier Item = "multiplier"
	ItemInsurance  Item = "insurance"
)

// ParseItem aceita o nome do item em qualquer caixa
func ParseItem(s string) (Item, bool) {
	switch Item(strings.ToLower(strings.TrimSpace(s))) {
	case ItemMultiplier:
		return ItemMultiplier, true
	case ItemInsurance:
		return ItemInsurance, true
	}
	return "", false
}

type Account struct {
	UserID         string         `json:"user_id"`
	Balance        int64          `json:"balance"`
	TotalWagered   int64          `json:"total_wagered"`
	Wins           int64          `json:"wins"`
	Losses         int64          `json:"losses"`
	Inventory      map[Item]int64 `json:"inventory,omitempty"`
	LastDailyClaim *time.Time     `json:"last_daily_claim,omitempty"`
	LoanAmount     int64          `json:"loan_amount"`
}

func newAccount(userID string) *Account {
	return &Account{
		UserID:    userID,
		Balance:   StartingBalance,
		Inventory: map[Item]int64{},
	}
}

func (a *Account) clone() *Account {
	c := *a
	c.Inventory = make(map[Item]int64, len(a.Inventory))
	for k, v := range a.Inventory {
		c.Inventory[k] = v
	}
	if a.LastDailyClaim != nil {
		t := *a.LastDailyClaim
		c.LastDailyClaim = &t
	}
	return &c
}

// EventStatus é derivado de Locked/Result
type EventStatus string

const (
	StatusOpen     EventStatus = "open"
	StatusLocked   EventStatus = "locked"
	StatusResolved EventStatus = "resolved"
)

type Event struct {
	ID            string     `json:"id"`
	Home          string     `json:"home"`
	Away          string     `json:"away"`
	HomeOdds      float64    `json:"home_odds"`
	AwayOdds      float64    `json:"away_odds"`
	StartTime     time.Time  `json:"start_time"`
	LockTime      *time.Time `json:"lock_time,omitempty"`
	Locked        bool       `json:"locked"`
	Result        *Team      `json:"result,omitempty"`
	SourceChannel string     `json:"source_channel,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EffectiveLockTime usa StartTime quando LockTime não foi informado
func (e Event) EffectiveLockTime() time.Time {
	if e.LockTime != nil {
		return *e.LockTime
	}
	return e.StartTime
}

func (e Event) Status() EventStatus {
	switch {
	case e.Result != nil:
		return StatusResolved
	case e.Locked:
		return StatusLocked
	default:
		return StatusOpen
	}
}

func (e Event) OddsFor(t Team) float64 {
	if t == TeamHome {
		return e.HomeOdds
	}
	return e.AwayOdds
}

func (e Event) TeamName(t Team) string {
	if t == TeamHome {
		return e.Home
	}
	return e.Away
}

func (e *Event) clone() *Event {
	c := *e
	if e.LockTime != nil {
		t := *e.LockTime
		c.LockTime = &t
	}
	if e.Result != nil {
		r := *e.Result
		c.Result = &r
	}
	return &c
}

// EventID deriva o id determinístico: <home>_<away>_<unix start>
func EventID(home, away string, start time.Time) string {
	clean := func(s string) string {
		return strings.Join(strings.Fields(s), "-")
	}
	return clean(home) + "_" + clean(away) + "_" + itoa(start.Unix())
}

type Modifiers struct {
	Multiplier bool `json:"multiplier"`
	Insurance  bool `json:"insurance"`
}

type Wager struct {
	EventID         string          `json:"event_id"`
	UserID          string          `json:"user_id"`
	Team            Team            `json:"team"`
	Stake           int64           `json:"stake"`
	Odds            float64         `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Modifiers       Modifiers       `json:"modifiers"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// Settings é o registro de configuração persistido junto com o snapshot
type Settings struct {
	AnnounceChannel  string `json:"announce_channel,omitempty"`
	SlotsEnabled     bool   `json:"slots_enabled"`
	AutoFetchEnabled bool   `json:"auto_fetch_enabled"`
}

// DefaultSettings vale para um ledger recém-criado
func DefaultSettings() Settings {
	return Settings{SlotsEnabled: true, AutoFetchEnabled: true}
}

// Snapshot é o estado completo do ledger, lido e gravado inteiro
// Wagers mantém a ordem de inserção por jogo
type Snapshot struct {
	Accounts map[string]*Account `json:"accounts"`
	Events   map[string]*Event   `json:"events"`
	Wagers   map[string][]*Wager `json:"wagers"`
	Settings Settings            `json:"settings"`
	SavedAt  time.Time           `json:"saved_at"`
}

// NewSnapshot devolve um estado vazio com as configurações padrão
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Accounts: map[string]*Account{},
		Events:   map[string]*Event{},
		Wagers:   map[string][]*Wager{},
		Settings: DefaultSettings(),
	}
}

// Clone faz cópia profunda; mutações na cópia não vazam para o original
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Accounts: make(map[string]*Account, len(s.Accounts)),
		Events:   make(map[string]*Event, len(s.Events)),
		Wagers:   make(map[string][]*Wager, len(s.Wagers)),
		Settings: s.Settings,
		SavedAt:  s.SavedAt,
	}
	for id, a := range s.Accounts {
		c.Accounts[id] = a.clone()
	}
	for id, e := range s.Events {
		c.Events[id] = e.clone()
	}
	for id, ws := range s.Wagers {
		cp := make([]*Wager, len(ws))
		for i, w := range ws {
			wc := *w
			cp[i] = &wc
		}
		c.Wagers[id] = cp
	}
	return c
}

// normalize garante mapas não-nulos após Load
func (s *Snapshot) normalize() {
	if s.Accounts == nil {
		s.Accounts = map[string]*Account{}
	}
	if s.Events == nil {
		s.Events = map[string]*Event{}
	}
	if s.Wagers == nil {
		s.Wagers = map[string][]*Wager{}
	}
	for _, a := range s.Accounts {
		if a.Inventory == nil {
			a.Inventory = map[Item]int64{}
		}
	}
}

// sortedEvents ordena por início e depois por id
func sortedEvents(events map[string]*Event, keep func(*Event) bool) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if keep == nil || keep(e) {
			out = append(out, *e.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
