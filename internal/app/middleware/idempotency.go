package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"

	"staybook/internal/app/commands"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key         string
	Fingerprint string // hash of the command the key was first used with
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

	// ErrIdempotencyKeyReused rejects a key replayed with a different command body.
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key already used for a different request")
)

// Idempotency replays the stored result of a command already executed under the same key.
// Only successful results are stored, so a rejected submission can be corrected and retried.
// Concurrent duplicates share one execution.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	var inflight singleflight.Group
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			if idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			res, err, _ := inflight.Do(key, func() (any, error) {
				return execIdempotent(ctx, store, codec, key, idCmd, nextFn)
			})
			return res, err
		})
	}
}

func execIdempotent(ctx context.Context, store IdempotencyStore, codec ResultCodec, key string, cmd IdempotentCommand, next commandFunc) (any, error) {
	fingerprint, err := commandFingerprint(cmd)
	if err != nil {
		return nil, err
	}
	rec, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
			return nil, ErrIdempotencyKeyReused
		}
		proto := cmd.ResultPrototype()
		if proto == nil {
			return nil, errMissingPrototype
		}
		if err := codec.Decode(rec.Payload, proto); err != nil {
			return nil, err
		}
		return normalizePrototype(proto), nil
	}
	result, err := next(ctx, cmd)
	if err != nil {
		return nil, err
	}
	record := IdempotencyRecord{
		Key:         key,
		Fingerprint: fingerprint,
		OccurredAt:  time.Now().UTC(),
	}
	if result != nil {
		payload, encErr := codec.Encode(result)
		if encErr != nil {
			return nil, encErr
		}
		record.Payload = payload
	}
	if saveErr := store.Save(ctx, record); saveErr != nil {
		return nil, saveErr
	}
	return result, nil
}

func commandFingerprint(cmd commands.Command) (string, error) {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
