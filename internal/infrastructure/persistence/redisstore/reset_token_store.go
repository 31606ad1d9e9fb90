package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

const (
	tokenKeyPrefix   = "crt:t:"
	accountKeyPrefix = "crt:a:"

	// consumeRetries bounds optimistic WATCH retries before giving up.
	consumeRetries = 4
)

// ResetTokenStore implements ports.ResetTokenStore on redis. Expiry is the
// key TTL; the per-account pointer key is what keeps at most one token live
// per account.
type ResetTokenStore struct {
	client redis.UniversalClient
}

func NewResetTokenStore(client redis.UniversalClient) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func tokenKey(hash string) string { return tokenKeyPrefix + hash }

func accountKey(id domain.AccountID) string { return accountKeyPrefix + id.String() }

func (s *ResetTokenStore) Put(ctx context.Context, tokenHash string, accountID domain.AccountID, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(tokenHash), accountID.String(), ttl)
		pipe.Set(ctx, accountKey(accountID), tokenHash, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put reset token: %v", domerrors.ErrStorage, err)
	}
	return nil
}

func (s *ResetTokenStore) Get(ctx context.Context, tokenHash string) (domain.AccountID, error) {
	val, err := s.client.Get(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AccountID{}, domerrors.ErrTokenNotFound
		}
		return domain.AccountID{}, fmt.Errorf("%w: get reset token: %v", domerrors.ErrStorage, err)
	}
	return parseAccountID(val)
}

// ConsumeAtomic deletes the token under WATCH so two racing redemptions
// cannot both observe it: the transaction of the loser fails and its retry
// finds the key gone.
func (s *ResetTokenStore) ConsumeAtomic(ctx context.Context, tokenHash string) (domain.AccountID, error) {
	key := tokenKey(tokenHash)
	for i := 0; i < consumeRetries; i++ {
		var owner domain.AccountID
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}
			owner, err = parseAccountID(val)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.Del(ctx, accountKey(owner))
				return nil
			})
			return err
		}, key)
		switch {
		case err == nil:
			return owner, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return domain.AccountID{}, domerrors.ErrTokenNotFound
		default:
			return domain.AccountID{}, fmt.Errorf("%w: consume reset token: %v", domerrors.ErrStorage, err)
		}
	}
	return domain.AccountID{}, domerrors.ErrTokenNotFound
}

func (s *ResetTokenStore) InvalidateAllForAccount(ctx context.Context, accountID domain.AccountID) error {
	hash, err := s.client.Get(ctx, accountKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: lookup live reset token: %v", domerrors.ErrStorage, err)
	}
	if err := s.client.Del(ctx, tokenKey(hash), accountKey(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: invalidate reset tokens: %v", domerrors.ErrStorage, err)
	}
	return nil
}

func parseAccountID(val string) (domain.AccountID, error) {
	id, err := domain.ParseAccountID(val)
	if err != nil {
		return domain.AccountID{}, fmt.Errorf("%w: stored account id: %v", domerrors.ErrStorage, err)
	}
	return id, nil
}

var _ ports.ResetTokenStore = (*ResetTokenStore)(nil)
