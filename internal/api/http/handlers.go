package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/commands"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

var errBadJSON = errors.New("bad json")

// argsFunc traduz a requisição REST nos argumentos do comando
type argsFunc func(r *http.Request) (userID string, args []string, err error)

func (s *Server) exec(name string, parse argsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, args, err := parse(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		reply, err := s.table.Execute(r.Context(), name, commands.Invocation{
			UserID: userID,
			Admin:  s.isAdmin(r),
			Args:   args,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

type commandRequest struct {
	UserID string `json:"userId"`
	Line   string `json:"line"`
}

// command aceita uma linha "!bet ..." e responde com o texto curto
func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	reply, err := s.table.Dispatch(r.Context(), req.UserID, s.isAdmin(r), req.Line)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type settingsRequest struct {
	AnnounceChannel  *string `json:"announceChannel"`
	SlotsEnabled     *bool   `json:"slotsEnabled"`
	AutoFetchEnabled *bool   `json:"autoFetchEnabled"`
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	inv := commands.Invocation{Admin: s.isAdmin(r)}

	var args []string
	if req.AnnounceChannel != nil {
		args = append(args, "channel", *req.AnnounceChannel)
	}
	if req.SlotsEnabled != nil {
		args = append(args, "slots", strconv.FormatBool(*req.SlotsEnabled))
	}
	if req.AutoFetchEnabled != nil {
		args = append(args, "autofetch", strconv.FormatBool(*req.AutoFetchEnabled))
	}
	inv.Args = args

	// uma única execução: todos os campos entram na mesma escrita do ledger
	reply, err := s.table.Execute(r.Context(), "settings", inv)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	msg := commands.Render(err)
	if errors.Is(err, errBadJSON) {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// classify mapeia o erro para status HTTP e código estável
func classify(err error) (int, string) {
	var ue *commands.UsageError
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &ue):
		return http.StatusBadRequest, "usage"
	case errors.Is(err, commands.ErrNotCommand):
		return http.StatusBadRequest, "not_command"
	case errors.Is(err, commands.ErrUnknownCommand):
		return http.StatusNotFound, "unknown_command"
	case errors.Is(err, commands.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	}

	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		return http.StatusNotFound, ledger.CodeOf(err)
	case ledger.KindInvalidInput:
		return http.StatusBadRequest, ledger.CodeOf(err)
	case ledger.KindStateConflict:
		return http.StatusConflict, ledger.CodeOf(err)
	case ledger.KindInsufficientFunds:
		return http.StatusUnprocessableEntity, ledger.CodeOf(err)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return errBadJSON
	}
	return nil
}

func noArgs(r *http.Request) (string, []string, error) {
	return chi.URLParam(r, "userID"), nil, nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func loanArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return chi.URLParam(r, "userID"), []string{itoa(req.Amount)}, nil
}

func buyArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Item string `json:"item"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return chi.URLParam(r, "userID"), []string{req.Item}, nil
}

func transferArgs(r *http.Request) (string, []string, error) {
	var req struct {
		To     string `json:"to"`
		Amount int64  `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return chi.URLParam(r, "userID"), []string{req.To, itoa(req.Amount)}, nil
}

func slotsArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Stake int64 `json:"stake"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return chi.URLParam(r, "userID"), []string{itoa(req.Stake)}, nil
}

func inventoryArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Item  string `json:"item"`
		Count int64  `json:"count"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return "", []string{chi.URLParam(r, "userID"), req.Item, itoa(req.Count)}, nil
}

func adjustArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Delta int64 `json:"delta"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return "", []string{chi.URLParam(r, "userID"), itoa(req.Delta)}, nil
}

func listEventsArgs(r *http.Request) (string, []string, error) {
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		return "", []string{"all"}, nil
	}
	return "", nil, nil
}

func eventArgs(r *http.Request) (string, []string, error) {
	return "", []string{chi.URLParam(r, "id")}, nil
}

type createEventRequest struct {
	Home      string     `json:"home"`
	Away      string     `json:"away"`
	HomeOdds  float64    `json:"homeOdds"`
	AwayOdds  float64    `json:"awayOdds"`
	StartTime time.Time  `json:"startTime"`
	LockTime  *time.Time `json:"lockTime,omitempty"`
	Channel   string     `json:"channel,omitempty"`
}

func createEventArgs(r *http.Request) (string, []string, error) {
	var req createEventRequest
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	args := []string{
		req.Home,
		req.Away,
		strconv.FormatFloat(req.HomeOdds, 'f', -1, 64),
		strconv.FormatFloat(req.AwayOdds, 'f', -1, 64),
		req.StartTime.UTC().Format(time.RFC3339),
	}
	if req.LockTime != nil {
		args = append(args, "lock="+req.LockTime.UTC().Format(time.RFC3339))
	}
	if req.Channel != "" {
		args = append(args, "channel="+req.Channel)
	}
	return "", args, nil
}

func wagerArgs(r *http.Request) (string, []string, error) {
	var req struct {
		UserID string `json:"userId"`
		Team   string `json:"team"`
		Stake  int64  `json:"stake"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return req.UserID, []string{chi.URLParam(r, "id"), req.Team, itoa(req.Stake)}, nil
}

func resolveArgs(r *http.Request) (string, []string, error) {
	var req struct {
		Winner string `json:"winner"`
	}
	if err := decode(r, &req); err != nil {
		return "", nil, err
	}
	return "", []string{chi.URLParam(r, "id"), req.Winner}, nil
}
