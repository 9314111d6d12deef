package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/commands"
)

// AdminHeader carrega o token das rotas administrativas
const AdminHeader = "X-Admin-Token"

// Server expõe a tabela de comandos por REST, por linha de texto e o hub WS
type Server struct {
	log         *zap.Logger
	table       *commands.Table
	ws          http.HandlerFunc
	adminToken  string
	corsOrigins []string
}

type Options struct {
	Log         *zap.Logger
	Table       *commands.Table
	WS          http.HandlerFunc // nil desliga /ws
	AdminToken  string           // vazio desliga as rotas administrativas
	CORSOrigins []string
}

func NewServer(o Options) *Server {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return &Server{
		log:         o.Log,
		table:       o.Table,
		ws:          o.WS,
		adminToken:  o.AdminToken,
		corsOrigins: o.CORSOrigins,
	}
}

// Router monta as rotas da API do ledger
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", AdminHeader},
		MaxAge:         300,
	}))

	if s.ws != nil {
		r.Get("/ws", s.ws)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/commands", s.command)

		r.Get("/leaderboard", s.exec("leaderboard", noArgs))
		r.Get("/shop", s.exec("shop", noArgs))

		r.Route("/accounts/{userID}", func(r chi.Router) {
			r.Get("/", s.exec("balance", noArgs))
			r.Get("/wagers", s.exec("mybets", noArgs))
			r.Post("/daily", s.exec("daily", noArgs))
			r.Post("/loan", s.exec("loan", loanArgs))
			r.Post("/loan/repay", s.exec("repay", noArgs))
			r.Post("/shop", s.exec("buy", buyArgs))
			r.Post("/transfer", s.exec("transfer", transferArgs))
			r.Post("/slots", s.exec("slots", slotsArgs))
			r.Put("/inventory", s.exec("setinventory", inventoryArgs))
			r.Post("/adjust", s.exec("adjust", adjustArgs))
		})

		r.Get("/events", s.exec("games", listEventsArgs))
		r.Post("/events", s.exec("creategame", createEventArgs))
		r.Get("/events/{id}", s.exec("game", eventArgs))
		r.Post("/events/{id}/wagers", s.exec("bet", wagerArgs))
		r.Post("/events/{id}/resolve", s.exec("result", resolveArgs))

		r.Get("/settings", s.exec("settings", noArgs))
		r.Put("/settings", s.updateSettings)
	})

	return r
}

func (s *Server) isAdmin(r *http.Request) bool {
	if s.adminToken == "" {
		return false
	}
	got := r.Header.Get(AdminHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) == 1
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}
