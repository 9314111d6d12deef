package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

// LeaderboardSize é o tamanho do ranking público
const LeaderboardSize = 10

func (t *Table) registerBuiltins() {
	t.register(&Command{Name: "balance", Usage: "!balance", Help: "Check your balance and stats", Run: t.balance}, "bal")
	t.register(&Command{Name: "bet", Usage: "!bet <game_id> <home|away> <amount>", Help: "Place a bet", MinArgs: 3, Run: t.bet})
	t.register(&Command{Name: "mybets", Usage: "!mybets", Help: "View your active bets", Run: t.mybets})
	t.register(&Command{Name: "games", Usage: "!games [all]", Help: "List all active games", Run: t.games})
	t.register(&Command{Name: "game", Usage: "!game <game_id>", Help: "Show one game and its bets", MinArgs: 1, Run: t.game})
	t.register(&Command{Name: "leaderboard", Usage: "!leaderboard", Help: "Top 10 richest bettors", Run: t.leaderboard}, "top")
	t.register(&Command{Name: "shop", Usage: "!shop", Help: "List power-ups and prices", Run: t.shop})
	t.register(&Command{Name: "buy", Usage: "!buy <multiplier|insurance>", Help: "Buy a power-up", MinArgs: 1, Run: t.buy})
	t.register(&Command{Name: "daily", Usage: "!daily", Help: "Claim the daily bonus", Run: t.daily})
	t.register(&Command{Name: "loan", Usage: "!loan <10-100>", Help: "Borrow cash at 20% interest", MinArgs: 1, Run: t.loan})
	t.register(&Command{Name: "repay", Usage: "!repay", Help: "Repay your loan", Run: t.repay})
	t.register(&Command{Name: "transfer", Usage: "!transfer <user_id> <amount>", Help: "Send cash to another user", MinArgs: 2, Run: t.transfer}, "give")
	t.register(&Command{Name: "slots", Usage: "!slots <amount>", Help: "Spin the slot machine", MinArgs: 1, Run: t.slots})
	t.register(&Command{Name: "help", Usage: "!help", Help: "Show all commands", Run: t.help})

	t.register(&Command{Name: "creategame", Usage: "!creategame <home> <away> <home_odds> <away_odds> <YYYY-MM-DD HH:MM> [lock=<RFC3339>] [channel=<id>]", Help: "Create a game", Admin: true, MinArgs: 5, Run: t.creategame})
	t.register(&Command{Name: "result", Usage: "!result <game_id> <home|away>", Help: "Set winner and pay out", Admin: true, MinArgs: 2, Run: t.result}, "resolve")
	t.register(&Command{Name: "setinventory", Usage: "!setinventory <user_id> <multiplier|insurance> <count>", Help: "Set a user's power-up count", Admin: true, MinArgs: 3, Run: t.setinventory})
	t.register(&Command{Name: "adjust", Usage: "!adjust <user_id> <delta>", Help: "Add or remove cash from a user", Admin: true, MinArgs: 2, Run: t.adjust})
	t.register(&Command{Name: "settings", Usage: "!settings [channel <id>] [slots on|off] [autofetch on|off]", Help: "Show or change settings", Admin: true, Run: t.settings})
}

func (t *Table) balance(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	a, err := t.ledger.Account(ctx, inv.UserID)
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("Balance: %s | Record: %s | Total wagered: %s", money(a.Balance), record(a), money(a.TotalWagered))
	if a.LoanAmount > 0 {
		text += " | Loan owed: " + money(a.LoanAmount)
	}
	text += " | Items: " + inventory(a)
	return Reply{Text: text, Data: a}, nil
}

// BetResult é a resposta do comando bet
type BetResult struct {
	Wager   ledger.Wager   `json:"wager"`
	Account ledger.Account `json:"account"`
}

func (t *Table) bet(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	stake, err := parseAmount(c, inv.Args[2])
	if err != nil {
		return Reply{}, err
	}
	w, a, err := t.ledger.PlaceWager(ctx, inv.Args[0], inv.UserID, inv.Args[1], stake)
	if err != nil {
		return Reply{}, err
	}

	var team string
	if e, err := t.ledger.Event(w.EventID); err == nil {
		team = e.TeamName(w.Team)
	}
	text := fmt.Sprintf("Bet placed: %s on %s at %s. Potential win: $%s. Balance: %s",
		money(w.Stake), team, odds(w.Odds), w.PotentialPayout.StringFixed(2), money(a.Balance))
	if w.Modifiers.Multiplier {
		text += " (multiplier applied)"
	}
	if w.Modifiers.Insurance {
		text += " (insured)"
	}
	return Reply{Text: text, Data: BetResult{Wager: w, Account: a}}, nil
}

func (t *Table) mybets(_ context.Context, c *Command, inv Invocation) (Reply, error) {
	active := t.ledger.ActiveWagers(inv.UserID)
	if len(active) == 0 {
		return Reply{Text: "No active bets!", Data: active}, nil
	}
	lines := make([]string, 0, len(active))
	for _, aw := range active {
		lines = append(lines, fmt.Sprintf("%s vs %s: %s - %s -> $%s",
			aw.Event.Home, aw.Event.Away, aw.Event.TeamName(aw.Wager.Team),
			money(aw.Wager.Stake), aw.Wager.PotentialPayout.StringFixed(2)))
	}
	return Reply{Text: strings.Join(lines, "\n"), Data: active}, nil
}

func (t *Table) games(_ context.Context, _ *Command, inv Invocation) (Reply, error) {
	all := len(inv.Args) > 0 && strings.EqualFold(inv.Args[0], "all")
	list := t.ledger.Events(all)
	if len(list) == 0 {
		return Reply{Text: "No active games right now!", Data: list}, nil
	}
	lines := make([]string, 0, len(list))
	for _, e := range list {
		lines = append(lines, fmt.Sprintf("%s vs %s [%s] %s / %s starts %s ID: %s",
			e.Home, e.Away, statusLabel(e), odds(e.HomeOdds), odds(e.AwayOdds),
			e.StartTime.Format(startLayout), e.ID))
	}
	return Reply{Text: strings.Join(lines, "\n"), Data: list}, nil
}

// GameDetail é a resposta do comando game
type GameDetail struct {
	Event  ledger.Event   `json:"event"`
	Status string         `json:"status"`
	Wagers []ledger.Wager `json:"wagers"`
}

func (t *Table) game(_ context.Context, _ *Command, inv Invocation) (Reply, error) {
	e, err := t.ledger.Event(inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	wagers, err := t.ledger.Wagers(e.ID)
	if err != nil {
		return Reply{}, err
	}
	if wagers == nil {
		wagers = []ledger.Wager{}
	}
	var pool int64
	for _, w := range wagers {
		pool += w.Stake
	}
	text := fmt.Sprintf("%s (%s) vs %s (%s) [%s] starts %s UTC. %d bets, %s wagered",
		e.Home, odds(e.HomeOdds), e.Away, odds(e.AwayOdds), statusLabel(e),
		e.StartTime.Format(startLayout), len(wagers), money(pool))
	if e.Result != nil {
		text += ". Winner: " + e.TeamName(*e.Result)
	}
	return Reply{Text: text, Data: GameDetail{Event: e, Status: string(e.Status()), Wagers: wagers}}, nil
}

func (t *Table) leaderboard(ctx context.Context, _ *Command, _ Invocation) (Reply, error) {
	top := t.board.Fetch(ctx, t.ledger, LeaderboardSize)
	if len(top) == 0 {
		return Reply{Text: "No bettors yet!", Data: top}, nil
	}
	lines := make([]string, 0, len(top))
	for i, a := range top {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s)", i+1, a.UserID, money(a.Balance), record(a)))
	}
	return Reply{Text: strings.Join(lines, "\n"), Data: top}, nil
}

func (t *Table) shop(context.Context, *Command, Invocation) (Reply, error) {
	text := fmt.Sprintf("multiplier - %s: doubles the payout of your next bet, lose it and pay the stake again\n"+
		"insurance - %s: refunds half the stake of your next losing bet",
		money(ledger.Prices[ledger.ItemMultiplier]), money(ledger.Prices[ledger.ItemInsurance]))
	return Reply{Text: text, Data: ledger.Prices}, nil
}

func (t *Table) buy(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	a, err := t.ledger.BuyItem(ctx, inv.UserID, inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	item, _ := ledger.ParseItem(inv.Args[0])
	return Reply{
		Text: fmt.Sprintf("Bought 1 %s. You now have %d. Balance: %s", item, a.Inventory[item], money(a.Balance)),
		Data: a,
	}, nil
}

func (t *Table) daily(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	a, err := t.ledger.ClaimDaily(ctx, inv.UserID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Daily bonus of %s claimed! Balance: %s", money(ledger.DailyBonus), money(a.Balance)), Data: a}, nil
}

func (t *Table) loan(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	amount, err := parseAmount(c, inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	a, err := t.ledger.TakeLoan(ctx, inv.UserID, amount)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Loan of %s granted. You owe %s. Balance: %s", money(amount), money(a.LoanAmount), money(a.Balance)), Data: a}, nil
}

// RepayResult é a resposta do comando repay
type RepayResult struct {
	Repaid  int64          `json:"repaid"`
	Account ledger.Account `json:"account"`
}

func (t *Table) repay(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	repaid, a, err := t.ledger.RepayLoan(ctx, inv.UserID)
	if err != nil {
		return Reply{}, err
	}
	data := RepayResult{Repaid: repaid, Account: a}
	if repaid == 0 {
		return Reply{Text: "You have no outstanding loan.", Data: data}, nil
	}
	return Reply{Text: fmt.Sprintf("Repaid %s. Balance: %s", money(repaid), money(a.Balance)), Data: data}, nil
}

func (t *Table) transfer(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	amount, err := parseAmount(c, inv.Args[1])
	if err != nil {
		return Reply{}, err
	}
	res, err := t.ledger.Transfer(ctx, inv.UserID, inv.Args[0], amount)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Sent %s to %s. Balance: %s", money(amount), res.To.UserID, money(res.From.Balance)), Data: res}, nil
}

func (t *Table) slots(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	stake, err := parseAmount(c, inv.Args[0])
	if err != nil {
		return Reply{}, err
	}
	res, err := t.ledger.SpinSlots(ctx, inv.UserID, stake)
	if err != nil {
		return Reply{}, err
	}
	reels := fmt.Sprintf("[ %s | %s | %s ]", res.Reels[0], res.Reels[1], res.Reels[2])
	if res.Payout == 0 {
		return Reply{Text: fmt.Sprintf("%s No luck. Balance: %s", reels, money(res.NewBalance)), Data: res}, nil
	}
	return Reply{Text: fmt.Sprintf("%s You won %s! Balance: %s", reels, money(res.Payout), money(res.NewBalance)), Data: res}, nil
}

func (t *Table) help(_ context.Context, c *Command, inv Invocation) (Reply, error) {
	var player, admin []string
	for _, c := range t.Commands() {
		line := fmt.Sprintf("%s - %s", c.Usage, c.Help)
		if c.Admin {
			admin = append(admin, line)
		} else {
			player = append(player, line)
		}
	}
	text := "Player commands:\n" + strings.Join(player, "\n")
	if inv.Admin {
		text += "\nAdmin commands:\n" + strings.Join(admin, "\n")
	}
	text += fmt.Sprintf("\nEveryone starts with %s | Minimum bet: %s", money(ledger.StartingBalance), money(ledger.MinimumStake))
	return Reply{Text: text}, nil
}

func (t *Table) creategame(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	homeOdds, err := parseOdds(c, inv.Args[2])
	if err != nil {
		return Reply{}, err
	}
	awayOdds, err := parseOdds(c, inv.Args[3])
	if err != nil {
		return Reply{}, err
	}
	in := ledger.EventInput{
		Home:     inv.Args[0],
		Away:     inv.Args[1],
		HomeOdds: homeOdds,
		AwayOdds: awayOdds,
	}
	var timeParts []string
	for _, arg := range inv.Args[4:] {
		switch {
		case strings.HasPrefix(arg, "lock="):
			lock, err := time.Parse(time.RFC3339, strings.TrimPrefix(arg, "lock="))
			if err != nil {
				return Reply{}, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "invalid lock time"}
			}
			in.LockTime = &lock
		case strings.HasPrefix(arg, "channel="):
			in.Channel = strings.TrimPrefix(arg, "channel=")
		default:
			timeParts = append(timeParts, arg)
		}
	}
	start, err := parseStart(c, timeParts)
	if err != nil {
		return Reply{}, err
	}
	in.StartTime = start
	e, err := t.ledger.CreateEvent(ctx, in)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text: fmt.Sprintf("New game: %s (%s) vs %s (%s) at %s UTC. ID: %s",
			e.Home, odds(e.HomeOdds), e.Away, odds(e.AwayOdds), e.StartTime.Format(startLayout), e.ID),
		Data: e,
	}, nil
}

func (t *Table) result(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	res, err := t.ledger.ResolveEvent(ctx, inv.Args[0], inv.Args[1])
	if err != nil {
		return Reply{}, err
	}
	e := res.Event
	var winners, losers []string
	for _, o := range res.Outcomes {
		switch o.Kind {
		case ledger.OutcomeWon:
			winners = append(winners, fmt.Sprintf("%s +%s", o.UserID, money(o.Amount)))
		case ledger.OutcomeLostWithInsurance:
			losers = append(losers, fmt.Sprintf("%s (insurance refund %s)", o.UserID, money(o.Amount)))
		case ledger.OutcomeLostWithPenalty:
			losers = append(losers, fmt.Sprintf("%s (multiplier penalty %s)", o.UserID, money(o.Amount)))
		default:
			losers = append(losers, o.UserID)
		}
	}
	text := fmt.Sprintf("%s vs %s final. Winner: %s", e.Home, e.Away, e.TeamName(*e.Result))
	if len(winners) > 0 {
		text += "\nWinners: " + strings.Join(winners, ", ")
	}
	if len(losers) > 0 {
		text += "\nLosers: " + strings.Join(losers, ", ")
	}
	return Reply{Text: text, Data: res}, nil
}

func (t *Table) setinventory(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	item, ok := ledger.ParseItem(inv.Args[1])
	if !ok {
		return Reply{}, ledger.ErrInvalidItem
	}
	count, err := parseAmount(c, inv.Args[2])
	if err != nil {
		return Reply{}, err
	}
	a, err := t.ledger.SetInventory(ctx, inv.Args[0], item, count)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("%s now has %d %s.", a.UserID, a.Inventory[item], item), Data: a}, nil
}

func (t *Table) adjust(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	delta, err := parseAmount(c, inv.Args[1])
	if err != nil {
		return Reply{}, err
	}
	a, err := t.ledger.AdjustBalance(ctx, inv.Args[0], delta)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("%s balance is now %s.", a.UserID, money(a.Balance)), Data: a}, nil
}

func (t *Table) settings(ctx context.Context, c *Command, inv Invocation) (Reply, error) {
	var s ledger.Settings
	if len(inv.Args) == 0 {
		s = t.ledger.Settings()
	} else {
		setters, err := settingSetters(c, inv.Args)
		if err != nil {
			return Reply{}, err
		}
		// todas as chaves na mesma escrita
		s, err = t.ledger.PatchSettings(ctx, func(cur *ledger.Settings) error {
			for _, set := range setters {
				set(cur)
			}
			return nil
		})
		if err != nil {
			return Reply{}, err
		}
	}
	channel := s.AnnounceChannel
	if channel == "" {
		channel = "(none)"
	}
	return Reply{
		Text: fmt.Sprintf("Announce channel: %s | Slots: %s | Auto-fetch: %s", channel, onOff(s.SlotsEnabled), onOff(s.AutoFetchEnabled)),
		Data: s,
	}, nil
}

// settingSetters valida pares chave/valor antes de tocar no ledger
func settingSetters(c *Command, args []string) ([]func(*ledger.Settings), error) {
	if len(args)%2 != 0 {
		return nil, &UsageError{Command: c.Name, Usage: c.Usage}
	}
	var out []func(*ledger.Settings)
	for i := 0; i < len(args); i += 2 {
		key, val := strings.ToLower(args[i]), args[i+1]
		switch key {
		case "channel":
			out = append(out, func(s *ledger.Settings) { s.AnnounceChannel = val })
		case "slots", "autofetch":
			on, ok := parseSwitch(val)
			if !ok {
				return nil, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "expected on or off"}
			}
			if key == "slots" {
				out = append(out, func(s *ledger.Settings) { s.SlotsEnabled = on })
			} else {
				out = append(out, func(s *ledger.Settings) { s.AutoFetchEnabled = on })
			}
		default:
			return nil, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "unknown setting " + key}
		}
	}
	return out, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
