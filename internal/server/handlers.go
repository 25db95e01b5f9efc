package server

import (
	"encoding/json"
	"math"
	"net/http"

	"atlas-broker-runner/internal/logger"
	"atlas-broker-runner/internal/orderlog"
	"atlas-broker-runner/internal/policy"
	"atlas-broker-runner/internal/types"
)

// handleConnect starts the browser, logs in, and reports the balance when
// one can be read. The session stays open afterwards so signals can
// execute without a cold start.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	run, key, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	var creds types.Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)

	ctx := r.Context()
	if _, err := run.LoginIfNeeded(ctx, creds); err != nil {
		writeJSON(w, errorStatus(err), map[string]any{
			"success":    false,
			"isLoggedIn": false,
			"isReady":    false,
			"message":    err.Error(),
		})
		return
	}

	// An unreadable balance is not a connect failure: the session is live
	// and later status polls may catch the element once the page settles.
	resp := map[string]any{
		"success":    true,
		"isLoggedIn": true,
		"isReady":    true,
		"broker":     key,
	}
	if balance, err := run.Balance(ctx); err == nil && balance != nil {
		resp["balance"] = *balance
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	var creds types.Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)

	ctx := r.Context()
	if _, err := run.LoginIfNeeded(ctx, creds); err != nil {
		writeError(w, err)
		return
	}
	balance, _ := run.Balance(ctx)
	writeJSON(w, http.StatusOK, map[string]any{"isLoggedIn": true, "balance": balance})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}
	resp := map[string]any{"ok": true, "pageReady": run.Ready()}
	if run.Ready() {
		balance, err := run.Balance(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		if balance != nil {
			resp["balance"] = *balance
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run, key, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}
	balance, err := run.Balance(r.Context())
	if err != nil || balance == nil {
		writeJSON(w, http.StatusOK, map[string]any{"isConnected": false, "isLoggedIn": false})
		return
	}
	if err := orderlog.AppendBalance(orderlog.BalanceEntry{Broker: key, Balance: *balance}); err != nil {
		logger.Warn(r.Context(), "Balance journal write failed", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"isConnected": true,
		"isLoggedIn":  true,
		"balance":     *balance,
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	run, key, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	var req types.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	result, err := run.PlaceOrder(r.Context(), req)
	if err != nil {
		_ = orderlog.Append(orderlog.Entry{
			Broker:        key,
			Side:          string(req.Side),
			Stake:         req.Stake,
			ExpirationSec: req.ExpirationSec,
			Accepted:      false,
			Reason:        err.Error(),
		})
		writeError(w, err)
		return
	}

	if err := orderlog.Append(orderlog.Entry{
		Broker:        key,
		Side:          string(result.Side),
		Stake:         result.Stake,
		ExpirationSec: result.ExpirationSec,
		Accepted:      result.Accepted,
	}); err != nil {
		logger.Warn(r.Context(), "Order journal write failed", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runnerFrom(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}
	report, err := run.DebugProbe(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type autoTradeRequest struct {
	Broker          string         `json:"broker"`
	Pair            string         `json:"pair"`
	TimeframeSec    int            `json:"tf_sec"`
	Features        map[string]any `json:"features"`
	Session         string         `json:"session"`
	PolicyHints     map[string]any `json:"policy_hints"`
	StakeAbsolute   float64        `json:"stake_absolute"`
	StakePercentage float64        `json:"stake_percentage"`
	MinStake        float64        `json:"min_stake"`
}

// handleAutoTrade asks the prediction service whether to enter, sizes the
// stake from the live balance when requested, and executes on the runner.
func (s *Server) handleAutoTrade(w http.ResponseWriter, r *http.Request) {
	var req autoTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	if req.Broker == "" {
		req.Broker = "quotex"
	}
	if req.MinStake <= 0 {
		req.MinStake = s.cfg.Policy.MinStake
	}

	ctx := r.Context()
	decision, err := s.policy.Predict(ctx, policy.PredictRequest{
		Pair:         req.Pair,
		TimeframeSec: req.TimeframeSec,
		Features:     req.Features,
		Session:      req.Session,
		PolicyHints:  req.PolicyHints,
	})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	if !decision.Enter {
		writeJSON(w, http.StatusOK, map[string]any{
			"predict":  decision,
			"executed": false,
			"reason":   "policy-enter-false",
		})
		return
	}

	run, err := s.runners.Get(req.Broker)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	stake := req.StakeAbsolute
	if stake <= 0 && req.StakePercentage > 0 {
		balance, err := run.Balance(ctx)
		if err != nil || balance == nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"predict":  decision,
				"executed": false,
				"error":    "balance-unavailable",
			})
			return
		}
		stake = math.Max(req.MinStake, math.Floor(*balance*req.StakePercentage/100))
	}
	if stake <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"predict":  decision,
			"executed": false,
			"error":    "missing stake",
		})
		return
	}

	result, err := run.PlaceOrder(ctx, types.OrderRequest{
		Side:          types.Side(decision.Side),
		Stake:         stake,
		ExpirationSec: decision.ExpirationSec,
	})
	if err != nil {
		_ = orderlog.Append(orderlog.Entry{
			Broker:        req.Broker,
			Side:          decision.Side,
			Stake:         stake,
			ExpirationSec: decision.ExpirationSec,
			Accepted:      false,
			Reason:        err.Error(),
		})
		writeError(w, err)
		return
	}

	_ = orderlog.Append(orderlog.Entry{
		Broker:        req.Broker,
		Side:          string(result.Side),
		Stake:         result.Stake,
		ExpirationSec: result.ExpirationSec,
		Accepted:      result.Accepted,
		Extra: map[string]any{
			"pair":         req.Pair,
			"policy_score": decision.PolicyScore,
			"reason":       decision.Reason,
		},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"predict":  decision,
		"executed": true,
		"order":    result,
	})
}
