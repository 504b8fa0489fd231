package repositories

import (
	"context"
)

// TokenHolder keeps the bearer token under [KeyAuthToken].
//
// Token presence is the only session signal; nothing about expiry is stored.
type TokenHolder struct {
	kv *KVRepository
}

func NewTokenHolder(kv *KVRepository) *TokenHolder {
	return &TokenHolder{kv: kv}
}

// Get returns the token and whether one is held. Read errors count as no token.
func (h *TokenHolder) Get(ctx context.Context) (string, bool) {
	raw, err := h.kv.Get(ctx, KeyAuthToken)
	if err != nil || raw == nil || *raw == "" {
		return "", false
	}
	return *raw, true
}

func (h *TokenHolder) Set(ctx context.Context, token string) error {
	return h.kv.Set(ctx, KeyAuthToken, token)
}

func (h *TokenHolder) Clear(ctx context.Context) error {
	return h.kv.Delete(ctx, KeyAuthToken)
}
