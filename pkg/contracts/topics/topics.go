package topics

const (
	// Odds (entrada do coletor de jogos)
	OddsUpdates = "odds_updates"

	// Ledger (notificações publicadas após persistência)
	LedgerEvents = "ledger_events"
)
