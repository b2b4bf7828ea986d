package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SlotName prefixes every persisted cart; the session id follows a colon.
const SlotName = "jaryq-cart"

const defaultSaveTimeout = 2 * time.Second

var ErrMalformed = errors.New("malformed cart state")

func SlotKey(session string) string {
	return SlotName + ":" + session
}

// Slots is a durable key-value store holding one encoded cart per key.
type Slots interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
}

// Encode renders items as a JSON array; an empty cart encodes as [].
func Encode(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// Decode parses a persisted cart and checks the invariants a store relies
// on: non-empty ids, non-negative prices, positive quantities and unique
// keys.
func Decode(data []byte) ([]LineItem, error) {
	var items []LineItem

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	seen := make(map[Key]struct{}, len(items))
	for i, it := range items {
		switch {
		case it.ID == "":
			return nil, fmt.Errorf("%w: item %d has no id", ErrMalformed, i)
		case it.Price < 0:
			return nil, fmt.Errorf("%w: item %d has negative price", ErrMalformed, i)
		case it.Quantity < 1:
			return nil, fmt.Errorf("%w: item %d has quantity %d", ErrMalformed, i, it.Quantity)
		}
		if _, dup := seen[it.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate line %v", ErrMalformed, it.Key())
		}
		seen[it.Key()] = struct{}{}
	}
	return items, nil
}

// Adapter mirrors carts into Slots. A payload that cannot be parsed is
// dropped and the cart starts empty. A slot that cannot be read is
// reported, so the caller can retry instead of overwriting it. A cart that
// cannot be written stays in memory only.
type Adapter struct {
	Slots       Slots
	Log         *zap.Logger
	Metrics     *Metrics
	SaveTimeout time.Duration
}

// Hydrate returns the persisted items for session. Absent and malformed
// payloads yield an empty cart and a nil error; only a failed read returns
// an error.
func (a *Adapter) Hydrate(ctx context.Context, session string) ([]LineItem, error) {
	key := SlotKey(session)

	data, ok, err := a.Slots.Load(ctx, key)
	if err != nil {
		a.Metrics.persistFailed(opLoad)
		a.warn("cart load failed", key, err)
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	items, err := Decode(data)
	if err != nil {
		a.Metrics.discarded()
		a.warn("discarding malformed cart", key, err)
		return nil, nil
	}
	return items, nil
}

func (a *Adapter) Save(ctx context.Context, session string, items []LineItem) {
	key := SlotKey(session)

	data, err := Encode(items)
	if err != nil {
		a.Metrics.persistFailed(opSave)
		a.warn("cart encode failed", key, err)
		return
	}

	timeout := a.SaveTimeout
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.Slots.Store(ctx, key, data); err != nil {
		a.Metrics.persistFailed(opSave)
		a.warn("cart save failed", key, err)
	}
}

func (a *Adapter) warn(msg, key string, err error) {
	if a.Log != nil {
		a.Log.Warn(msg, zap.String("slot", key), zap.Error(err))
	}
}
