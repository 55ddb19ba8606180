package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/models"
)

type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// --- Matches ---

func (s *RedisService) SaveMatch(ctx context.Context, m *models.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	key := fmt.Sprintf(KeyMatch, m.ID)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	score := float64(m.CreatedAt.Unix())
	s.client.ZAdd(ctx, KeyMatchIndex, redis.Z{Score: score, Member: m.ID})
	for _, p := range m.Players {
		s.client.ZAdd(ctx, fmt.Sprintf(KeyUserMatches, p.User), redis.Z{Score: score, Member: m.ID})
	}

	return s.RefreshOpenIndex(ctx, m)
}

// RefreshOpenIndex keeps the open-matches set consistent with the
// match's matchmaking state. Index maintenance is best-effort; the match
// document itself stays authoritative.
func (s *RedisService) RefreshOpenIndex(ctx context.Context, m *models.Match) error {
	if m.MatchmakingStatus == models.MatchmakingSearching && m.Status == models.MatchStatusScheduled {
		return s.client.SAdd(ctx, KeyOpenMatches, m.ID).Err()
	}
	return s.client.SRem(ctx, KeyOpenMatches, m.ID).Err()
}

func (s *RedisService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyMatch, matchID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	var m models.Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &m, nil
}

// UpdateMatch applies mutate to the match under an optimistic WATCH
// transaction so concurrent writers on the same match linearize. Guard
// errors from mutate abort immediately and are never retried; only a
// lost WATCH race retries, up to maxTxRetries before ErrConflict.
func (s *RedisService) UpdateMatch(ctx context.Context, matchID string, mutate func(*models.Match) error) (*models.Match, error) {
	key := fmt.Sprintf(KeyMatch, matchID)
	var updated *models.Match

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var m models.Match
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return fmt.Errorf("failed to unmarshal match: %w", err)
		}

		if err := mutate(&m); err != nil {
			return err
		}
		m.UpdatedAt = time.Now()

		out, err := json.Marshal(&m)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &m
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (s *RedisService) DeleteMatch(ctx context.Context, m *models.Match) error {
	if err := s.client.Del(ctx, fmt.Sprintf(KeyMatch, m.ID)).Err(); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	s.deleteMatchIndexes(ctx, m)
	return nil
}

// DeleteMatchIf deletes the match under the same optimistic WATCH
// transaction as UpdateMatch, after re-reading it and passing it
// through guard. A concurrent write between the read and the delete
// restarts the attempt, so the guard always judges the current state.
func (s *RedisService) DeleteMatchIf(ctx context.Context, matchID string, guard func(*models.Match) error) error {
	key := fmt.Sprintf(KeyMatch, matchID)
	var deleted *models.Match

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var m models.Match
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return fmt.Errorf("failed to unmarshal match: %w", err)
		}

		if err := guard(&m); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			deleted = &m
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			s.deleteMatchIndexes(ctx, deleted)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisService) deleteMatchIndexes(ctx context.Context, m *models.Match) {
	s.client.ZRem(ctx, KeyMatchIndex, m.ID)
	s.client.SRem(ctx, KeyOpenMatches, m.ID)
	for _, p := range m.Players {
		s.client.ZRem(ctx, fmt.Sprintf(KeyUserMatches, p.User), m.ID)
	}
}

func (s *RedisService) IndexMatchForUser(ctx context.Context, m *models.Match, userID string) error {
	score := float64(m.CreatedAt.Unix())
	return s.client.ZAdd(ctx, fmt.Sprintf(KeyUserMatches, userID), redis.Z{Score: score, Member: m.ID}).Err()
}

func (s *RedisService) UnindexMatchForUser(ctx context.Context, matchID, userID string) error {
	return s.client.ZRem(ctx, fmt.Sprintf(KeyUserMatches, userID), matchID).Err()
}

func (s *RedisService) GetAllMatches(ctx context.Context, limit int64) ([]*models.Match, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	ids, err := s.client.ZRevRange(ctx, KeyMatchIndex, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return s.BulkGetMatches(ctx, ids)
}

func (s *RedisService) GetUserMatches(ctx context.Context, userID string, limit int64) ([]*models.Match, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyUserMatches, userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user matches: %w", err)
	}
	return s.BulkGetMatches(ctx, ids)
}

func (s *RedisService) GetOpenMatchIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, KeyOpenMatches).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return ids, nil
}

func (s *RedisService) BulkGetMatches(ctx context.Context, ids []string) ([]*models.Match, error) {
	if len(ids) == 0 {
		return []*models.Match{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyMatch, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	var matches []*models.Match
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		var m models.Match
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			continue
		}
		matches = append(matches, &m)
	}
	return matches, nil
}

// --- Wallets ---

func (s *RedisService) GetWalletRaw(ctx context.Context, userID string) (*models.Wallet, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyWallet, userID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	var w models.Wallet
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &w, nil
}

// CreateWalletIfAbsent seats a fresh zero-balance wallet behind SETNX so
// concurrent first access cannot create duplicates.
func (s *RedisService) CreateWalletIfAbsent(ctx context.Context, w *models.Wallet) (*models.Wallet, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet: %w", err)
	}

	key := fmt.Sprintf(KeyWallet, w.UserID)
	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if created {
		return w, nil
	}
	return s.GetWalletRaw(ctx, w.UserID)
}

// applyBalanceScript is the sole money-movement primitive: one atomic
// read-check-write on the wallet document. It rejects moves that would
// drive the balance negative and keeps the cumulative counters current.
// The transaction reference is reserved in the same atomic unit, so a
// replayed move with the same reference is rejected before any money
// moves.
var applyBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local ref = KEYS[2]
	local amount = tonumber(ARGV[1])
	local txtype = ARGV[2]
	local now = ARGV[3]
	local txid = ARGV[4]

	if redis.call("EXISTS", ref) == 1 then
		return redis.error_reply("duplicate reference")
	end

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	if wallet.status ~= "active" then
		return redis.error_reply("wallet not active")
	end

	local before = wallet.balance
	local after = before + amount

	if after < 0 then
		return redis.error_reply("insufficient balance")
	end

	wallet.balance = after

	if txtype == "deposit" then
		wallet.total_deposited = wallet.total_deposited + amount
		wallet.last_deposit = now
	elseif txtype == "withdrawal" then
		wallet.total_withdrawn = wallet.total_withdrawn - amount
		wallet.last_withdrawal = now
	elseif txtype == "matchWin" or txtype == "leaguePrize" then
		wallet.total_winnings = wallet.total_winnings + amount
	end

	wallet.updated_at = now

	redis.call("SET", key, cjson.encode(wallet))
	redis.call("SET", ref, txid)

	return {tostring(before), tostring(after)}
`)

// ApplyBalance moves the wallet balance by a signed amount and returns
// the balance before and after the move. The reference is claimed
// atomically with the move; a reference seen before means the move
// already happened and ErrConflict is returned with no effect.
func (s *RedisService) ApplyBalance(ctx context.Context, userID string, amount int64, txType models.TransactionType, reference, txID string) (int64, int64, error) {
	key := fmt.Sprintf(KeyWallet, userID)
	refKey := fmt.Sprintf(KeyTxReference, reference)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := applyBalanceScript.Run(ctx, s.client, []string{key, refKey}, amount, string(txType), now, txID).Result()
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "duplicate reference"):
			return 0, 0, fmt.Errorf("duplicate transaction reference %s: %w", reference, ErrConflict)
		case strings.Contains(err.Error(), "insufficient balance"):
			return 0, 0, ErrInsufficientFunds
		case strings.Contains(err.Error(), "wallet not active"):
			return 0, 0, ErrWalletFrozen
		case strings.Contains(err.Error(), "wallet not found"):
			return 0, 0, ErrNotFound
		}
		return 0, 0, fmt.Errorf("failed to apply balance: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected script result: %v", res)
	}
	before, err := strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	after, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// --- Transactions ---

// SaveTransaction persists the ledger record and its per-user index.
// Reference uniqueness is enforced upstream, inside ApplyBalance.
func (s *RedisService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if err := s.client.Set(ctx, fmt.Sprintf(KeyTransaction, tx.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return s.client.ZAdd(ctx, fmt.Sprintf(KeyUserTxIndex, tx.UserID), redis.Z{
		Score:  float64(tx.CreatedAt.UnixNano()),
		Member: tx.ID,
	}).Err()
}

func (s *RedisService) GetUserTransactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyUserTxIndex, userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction ids: %w", err)
	}

	var transactions []*models.Transaction
	for _, id := range ids {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransaction, id)).Result()
		if err != nil {
			continue
		}
		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}
		transactions = append(transactions, &tx)
	}
	return transactions, nil
}

// --- Idempotency markers ---

// AcquireMarker claims a one-shot marker. Returns false when some
// earlier attempt already claimed it.
func (s *RedisService) AcquireMarker(ctx context.Context, key, value string) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire marker: %w", err)
	}
	return ok, nil
}

// ReleaseMarker returns the marker to the unclaimed state. The boolean
// reports whether this call did the releasing, so compensating actions
// keyed on a marker run at most once.
func (s *RedisService) ReleaseMarker(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to release marker: %w", err)
	}
	return n == 1, nil
}

// --- Presence ---

func (s *RedisService) SetUserOnline(ctx context.Context, userID string) error {
	return s.client.SAdd(ctx, KeyOnlineUsers, userID).Err()
}

func (s *RedisService) SetUserOffline(ctx context.Context, userID string) error {
	return s.client.SRem(ctx, KeyOnlineUsers, userID).Err()
}

func (s *RedisService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, KeyOnlineUsers).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get online users: %w", err)
	}
	return users, nil
}

// --- Leagues ---

func (s *RedisService) SaveLeague(ctx context.Context, l *models.League) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal league: %w", err)
	}
	if err := s.client.Set(ctx, fmt.Sprintf(KeyLeague, l.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save league: %w", err)
	}
	s.client.ZAdd(ctx, KeyLeagueIndex, redis.Z{
		Score:  float64(l.StartDate.Unix()),
		Member: l.ID,
	})
	return nil
}

// GetAllLeagues returns every stored league ordered by start date.
func (s *RedisService) GetAllLeagues(ctx context.Context) ([]*models.League, error) {
	ids, err := s.client.ZRange(ctx, KeyLeagueIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}

	leagues := make([]*models.League, 0, len(ids))
	for _, id := range ids {
		l, err := s.GetLeague(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.client.ZRem(ctx, KeyLeagueIndex, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, l)
	}
	return leagues, nil
}

func (s *RedisService) DeleteLeague(ctx context.Context, leagueID string) error {
	if err := s.client.Del(ctx, fmt.Sprintf(KeyLeague, leagueID)).Err(); err != nil {
		return fmt.Errorf("failed to delete league: %w", err)
	}
	s.client.ZRem(ctx, KeyLeagueIndex, leagueID)
	return nil
}

func (s *RedisService) GetLeague(ctx context.Context, leagueID string) (*models.League, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyLeague, leagueID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	var l models.League
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}
	return &l, nil
}

// --- Rate limiting ---

func (s *RedisService) CheckRateLimit(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}

// --- Withdrawal windows ---

// withdrawWindowScript checks every rolling window against its limit
// and charges them, as one atomic unit, so two concurrent withdrawals
// cannot both pass the same remaining allowance.
var withdrawWindowScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])

	for i = 1, #KEYS do
		local current = tonumber(redis.call("GET", KEYS[i]) or "0")
		if current + amount > tonumber(ARGV[1+i]) then
			return redis.error_reply("withdrawal limit exceeded")
		end
	end

	for i = 1, #KEYS do
		local count = redis.call("INCRBY", KEYS[i], amount)
		if count == amount then
			redis.call("EXPIRE", KEYS[i], tonumber(ARGV[4+i]))
		end
	end

	return 1
`)

func (s *RedisService) withdrawWindowKeys(userID string) []string {
	return []string{
		fmt.Sprintf(KeyWithdrawWindow, userID, "daily"),
		fmt.Sprintf(KeyWithdrawWindow, userID, "weekly"),
		fmt.Sprintf(KeyWithdrawWindow, userID, "monthly"),
	}
}

// CheckAndRecordWithdrawal validates amount against each rolling
// withdrawal-limit window and charges them atomically. Window counters
// live in INCRBY keys with a TTL matching the window length.
func (s *RedisService) CheckAndRecordWithdrawal(ctx context.Context, userID string, amount int64, limits models.WithdrawalLimit) error {
	keys := s.withdrawWindowKeys(userID)
	args := []interface{}{
		amount,
		limits.Daily, limits.Weekly, limits.Monthly,
		int64(TTLWithdrawDaily.Seconds()), int64(TTLWithdrawWeekly.Seconds()), int64(TTLWithdrawMonthly.Seconds()),
	}

	if err := withdrawWindowScript.Run(ctx, s.client, keys, args...).Err(); err != nil {
		if strings.Contains(err.Error(), "withdrawal limit exceeded") {
			return ErrWithdrawalLimit
		}
		return fmt.Errorf("failed to record withdrawal: %w", err)
	}
	return nil
}

// ReleaseWithdrawal returns a charged allowance to the windows after a
// withdrawal that failed downstream of the limit check.
func (s *RedisService) ReleaseWithdrawal(ctx context.Context, userID string, amount int64) error {
	for _, key := range s.withdrawWindowKeys(userID) {
		if err := s.client.DecrBy(ctx, key, amount).Err(); err != nil {
			return fmt.Errorf("failed to release withdrawal allowance: %w", err)
		}
	}
	return nil
}

// --- Test cleanup helpers ---

func (s *RedisService) DeleteWallet(ctx context.Context, userID string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyWallet, userID)).Err()
}

func (s *RedisService) DeleteTransactionData(ctx context.Context, userID string) error {
	ids, _ := s.client.ZRange(ctx, fmt.Sprintf(KeyUserTxIndex, userID), 0, -1).Result()
	for _, id := range ids {
		s.client.Del(ctx, fmt.Sprintf(KeyTransaction, id))
	}
	return s.client.Del(ctx, fmt.Sprintf(KeyUserTxIndex, userID)).Err()
}

func (s *RedisService) DeleteMarker(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
