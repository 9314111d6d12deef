package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// EventID: obrigatório para subscribe/unsubscribe; "*" assina todos os jogos
type ClientMsg struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
}

// AllEvents é a assinatura curinga
const AllEvents = "*"
