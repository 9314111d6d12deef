// Package commands é a tabela única de operações do ledger compartilhada
// pelos transportes (REST, comandos de texto "!bet ...").
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/radieske/sports-wager-ledger/internal/cache"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrForbidden      = errors.New("admin only command")
	ErrNotCommand     = errors.New("not a command")
)

// UsageError indica argumentos inválidos para o comando
type UsageError struct {
	Command string
	Usage   string
	Reason  string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: usage %s", e.Reason, e.Usage)
	}
	return "usage: " + e.Usage
}

// Invocation é quem chamou e com quais argumentos
type Invocation struct {
	UserID string
	Admin  bool
	Args   []string
}

// Reply: Text para chat, Data para o transporte JSON
type Reply struct {
	Text string `json:"text"`
	Data any    `json:"data,omitempty"`
}

type Handler func(ctx context.Context, c *Command, inv Invocation) (Reply, error)

type Command struct {
	Name    string
	Usage   string
	Help    string
	Admin   bool
	MinArgs int
	Run     Handler
}

// Table resolve nomes (e apelidos) para comandos
type Table struct {
	ledger  *ledger.Ledger
	board   *cache.Leaderboard
	cmds    map[string]*Command
	aliases map[string]string
}

type Option func(*Table)

// WithLeaderboardCache liga o cache Redis do ranking
func WithLeaderboardCache(c *cache.Leaderboard) Option {
	return func(t *Table) { t.board = c }
}

func New(l *ledger.Ledger, opts ...Option) *Table {
	t := &Table{
		ledger:  l,
		cmds:    map[string]*Command{},
		aliases: map[string]string{},
	}
	for _, o := range opts {
		o(t)
	}
	t.registerBuiltins()
	return t
}

func (t *Table) register(c *Command, aliases ...string) {
	t.cmds[c.Name] = c
	for _, a := range aliases {
		t.aliases[a] = c.Name
	}
}

// Lookup aceita o nome ou um apelido, sem diferenciar caixa
func (t *Table) Lookup(name string) (*Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := t.aliases[name]; ok {
		name = canonical
	}
	c, ok := t.cmds[name]
	return c, ok
}

// Commands lista os comandos em ordem alfabética
func (t *Table) Commands() []*Command {
	out := make([]*Command, 0, len(t.cmds))
	for _, c := range t.cmds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute confere permissão e aridade antes de chamar o ledger
func (t *Table) Execute(ctx context.Context, name string, inv Invocation) (Reply, error) {
	c, ok := t.Lookup(name)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if c.Admin && !inv.Admin {
		return Reply{}, ErrForbidden
	}
	if len(inv.Args) < c.MinArgs {
		return Reply{}, &UsageError{Command: c.Name, Usage: c.Usage}
	}
	return c.Run(ctx, c, inv)
}

// Dispatch interpreta uma linha "!cmd args" e executa
func (t *Table) Dispatch(ctx context.Context, userID string, admin bool, line string) (Reply, error) {
	name, args, ok := ParseLine(line)
	if !ok {
		return Reply{}, ErrNotCommand
	}
	return t.Execute(ctx, name, Invocation{UserID: userID, Admin: admin, Args: args})
}
