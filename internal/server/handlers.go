package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	apperrors "alphamind/internal/errors"
	"alphamind/internal/models"
	"alphamind/internal/signal"
	"alphamind/internal/trading"
)

type generateRequest struct {
	Symbols    []string `json:"symbols"`
	Timeframe  string   `json:"timeframe"`
	MarketType string   `json:"market_type"`
	Mode       string   `json:"mode"`
	Strategy   string   `json:"strategy"`
}

type signalView struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Timeframe    string    `json:"timeframe"`
	Mode         string    `json:"mode"`
	Strategy     string    `json:"strategy"`
	Direction    string    `json:"direction"`
	Tier         string    `json:"tier"`
	CurrentPrice float64   `json:"current_price"`
	OptimalEntry float64   `json:"optimal_entry"`
	EntryType    string    `json:"entry_type"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit1  float64   `json:"take_profit_1"`
	TakeProfit2  float64   `json:"take_profit_2,omitempty"`
	TakeProfit3  float64   `json:"take_profit_3,omitempty"`
	RRRatio      float64   `json:"rr_ratio"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    time.Time `json:"created_at"`
}

func toSignalView(sig models.Signal) signalView {
	return signalView{
		ID:           sig.ID,
		Symbol:       sig.Symbol,
		Timeframe:    sig.Timeframe,
		Mode:         string(sig.Mode),
		Strategy:     sig.Strategy,
		Direction:    string(sig.Direction),
		Tier:         string(sig.Tier()),
		CurrentPrice: sig.CurrentPrice,
		OptimalEntry: sig.OptimalEntry,
		EntryType:    string(sig.EntryType),
		StopLoss:     sig.StopLoss,
		TakeProfit1:  sig.TakeProfit1,
		TakeProfit2:  sig.TakeProfit2,
		TakeProfit3:  sig.TakeProfit3,
		RRRatio:      sig.RRRatio,
		Confidence:   sig.Confidence,
		CreatedAt:    sig.CreatedAt,
	}
}

// handleGenerateSignals runs signal generation for one or more symbols.
// Per-symbol failures are reported alongside successes; the batch never
// fails as a whole.
func (s *Server) handleGenerateSignals(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &apperrors.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	if len(req.Symbols) == 0 {
		s.writeError(w, &apperrors.ValidationError{Field: "symbols", Message: "at least one symbol required"})
		return
	}
	if req.Timeframe == "" {
		req.Timeframe = "1h"
	}
	if req.Mode == "" {
		req.Mode = string(models.ModeIntraday)
	}

	if !s.cfg.Bot.MarketAllowed(models.InstrumentClass(req.MarketType)) {
		s.writeError(w, &apperrors.ValidationError{Field: "market_type", Message: "market not allowed"})
		return
	}

	reqs := make([]signal.Request, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		reqs = append(reqs, signal.Request{
			Symbol:     symbol,
			Timeframe:  req.Timeframe,
			MarketType: req.MarketType,
			Mode:       models.TradingMode(req.Mode),
			Strategy:   req.Strategy,
		})
	}

	type resultView struct {
		Symbol string      `json:"symbol"`
		Signal *signalView `json:"signal,omitempty"`
		Error  string      `json:"error,omitempty"`
	}

	results := s.signals.GenerateBatch(r.Context(), reqs)
	out := make([]resultView, 0, len(results))
	for _, res := range results {
		rv := resultView{Symbol: res.Request.Symbol}
		if res.Err != nil {
			rv.Error = res.Err.Error()
		} else {
			v := toSignalView(res.Signal)
			rv.Signal = &v
		}
		out = append(out, rv)
	}
	writeJSON(w, http.StatusOK, out)
}

type openTradeRequest struct {
	Signal     signalView `json:"signal"`
	Quantity   float64    `json:"quantity"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
}

type tradeView struct {
	ID          string    `json:"id"`
	SignalID    string    `json:"signal_id,omitempty"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	EntryPrice  float64   `json:"entry_price"`
	Quantity    float64   `json:"quantity"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	Strategy    string    `json:"strategy,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ExitPrice   float64   `json:"exit_price,omitempty"`
	PnL         float64   `json:"pnl,omitempty"`
	ClosedAt    string    `json:"closed_at,omitempty"`
	CloseReason string    `json:"close_reason,omitempty"`
}

func toTradeView(t *models.Trade) tradeView {
	v := tradeView{
		ID:         t.ID,
		SignalID:   t.SignalID,
		Symbol:     t.Symbol,
		Direction:  string(t.Direction),
		EntryPrice: t.EntryPrice,
		Quantity:   t.Quantity,
		StopLoss:   t.StopLoss,
		TakeProfit: t.TakeProfit,
		Strategy:   t.Strategy,
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt,
	}
	if t.Status == models.TradeStatusClosed {
		v.ExitPrice = t.ExitPrice
		v.PnL = t.PnL
		v.ClosedAt = t.ClosedAt.Format(time.RFC3339)
		v.CloseReason = string(t.CloseReason)
	}
	return v
}

func (s *Server) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &apperrors.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}

	sig := models.Signal{
		ID:           req.Signal.ID,
		Symbol:       req.Signal.Symbol,
		Mode:         models.TradingMode(req.Signal.Mode),
		Strategy:     req.Signal.Strategy,
		Direction:    models.Direction(req.Signal.Direction),
		CurrentPrice: req.Signal.CurrentPrice,
		StopLoss:     req.Signal.StopLoss,
		TakeProfit1:  req.Signal.TakeProfit1,
	}

	trade, err := s.ledger.Open(r.Context(), trading.OpenRequest{
		Signal:   &sig,
		Quantity: req.Quantity,
		StopLoss: req.StopLoss,
		TakeProf: req.TakeProfit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTradeView(trade))
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	var trades []*models.Trade
	switch r.URL.Query().Get("status") {
	case "open":
		trades = s.ledger.OpenTrades()
	case "closed":
		trades = s.ledger.ClosedTrades()
	default:
		trades = s.ledger.Trades()
	}

	out := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type closeTradeRequest struct {
	Reason string  `json:"reason"`
	Price  float64 `json:"price"`
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req closeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &apperrors.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	reason := models.CloseReason(req.Reason)
	if req.Reason == "" {
		reason = models.CloseManual
	}

	trade, err := s.ledger.Close(r.Context(), id, reason, req.Price)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTradeView(trade))
}

func (s *Server) handleCloseAtMarket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	trade, err := s.ledger.Close(r.Context(), id, models.CloseMarket, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTradeView(trade))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap := s.portfolio.Snapshot()
	floating := s.portfolio.FloatingPnL(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":      snap.Balance,
		"total_pnl":    snap.TotalPnL,
		"floating_pnl": floating,
		"win_rate":     snap.WinRate,
		"total_trades": snap.TotalTrades,
		"open_trades":  snap.OpenTrades,
	})
}

func (s *Server) handleEquity(w http.ResponseWriter, _ *http.Request) {
	curve := s.portfolio.EquityCurve()
	type point struct {
		Timestamp time.Time `json:"timestamp"`
		Equity    float64   `json:"equity"`
	}
	out := make([]point, 0, len(curve))
	for _, p := range curve {
		out = append(out, point{Timestamp: p.Timestamp, Equity: p.Equity})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	stats := s.portfolio.StrategyStats()
	type view struct {
		Strategy string  `json:"strategy"`
		Trades   int     `json:"trades"`
		TotalPnL float64 `json:"total_pnl"`
		AvgPnL   float64 `json:"avg_pnl"`
		WinRate  float64 `json:"win_rate"`
		MaxWin   float64 `json:"max_win"`
	}
	out := make([]view, 0, len(stats))
	for _, st := range stats {
		out = append(out, view{
			Strategy: st.Strategy,
			Trades:   st.Trades,
			TotalPnL: st.TotalPnL,
			AvgPnL:   st.AvgPnL,
			WinRate:  st.WinRate,
			MaxWin:   st.MaxWin,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModes(w http.ResponseWriter, _ *http.Request) {
	type modeView struct {
		Mode             string  `json:"mode"`
		StopMultiplier   float64 `json:"stop_multiplier"`
		TargetMultiplier float64 `json:"target_multiplier"`
	}
	out := make([]modeView, 0, len(s.cfg.Risk.Modes))
	for mode, mc := range s.cfg.Risk.Modes {
		out = append(out, modeView{
			Mode:             string(mode),
			StopMultiplier:   mc.StopMultiplier,
			TargetMultiplier: mc.TargetMultiplier,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StopMultiplier < out[j].StopMultiplier })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().UTC(),
		"subscribers": s.hub.SubscriberCount(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handlePriceStream upgrades the connection and streams ticks for the
// requested symbols until the client disconnects.
func (s *Server) handlePriceStream(w http.ResponseWriter, r *http.Request) {
	symbols := r.URL.Query()["symbol"]
	if len(symbols) == 0 {
		s.writeError(w, &apperrors.ValidationError{Field: "symbol", Message: "at least one symbol query parameter required"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	merged := make(chan PriceTick, 100)
	done := make(chan struct{})
	for _, symbol := range symbols {
		ch := s.hub.Subscribe(symbol)
		sym := symbol
		go func() {
			defer s.hub.Unsubscribe(sym, ch)
			for {
				select {
				case <-done:
					return
				case tick, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- tick:
					case <-done:
						return
					}
				}
			}
		}()
	}
	defer close(done)

	// Reader goroutine detects client disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			return
		case tick := <-merged:
			if err := conn.WriteJSON(tick); err != nil {
				return
			}
		}
	}
}
