// Package session はRedisを使ったセッションストアを提供します。
// クッキーには署名付きのセッションIDのみを保持し、
// セッションの値はTTL付きでRedisに保存します。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gorsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore は gin-contrib/sessions の Store として使えるRedisストアです。
type RedisStore struct {
	rdb     *redis.Client
	codecs  []securecookie.Codec
	options *gorsessions.Options
}

// NewRedisStore は RedisStore を作成します。keyPairs はクッキー署名鍵です。
func NewRedisStore(rdb *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gorsessions.Options{
			Path:   "/",
			MaxAge: 86400 * 14,
		},
	}
}

// Options はクッキーオプションを設定します。
func (s *RedisStore) Options(options ginsessions.Options) {
	s.options = options.ToGorillaOptions()
}

// Get は名前付きセッションをリクエストのレジストリから取得します。
func (s *RedisStore) Get(r *http.Request, name string) (*gorsessions.Session, error) {
	return gorsessions.GetRegistry(r).Get(s, name)
}

// New は新しいセッションを作成します。クッキーに有効なセッションIDが
// 含まれていればRedisから値を復元します。
func (s *RedisStore) New(r *http.Request, name string) (*gorsessions.Session, error) {
	session := gorsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		// 署名が不正なクッキーは無視して新規セッションとして扱う
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

// Save はセッションをRedisに保存し、セッションIDをクッキーに書き込みます。
// MaxAge が0以下の場合はRedisのエントリーとクッキーを削除します。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gorsessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge <= 0 {
		if err := s.delete(ctx, session); err != nil {
			return err
		}
		http.SetCookie(w, gorsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := generateSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}

	if err := s.save(ctx, session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gorsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) save(ctx context.Context, session *gorsessions.Session) error {
	values := make(map[string]any, len(session.Values))
	for k, v := range session.Values {
		key, ok := k.(string)
		if !ok {
			return fmt.Errorf("session value key is not a string: %v", k)
		}
		values[key] = v
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	return s.rdb.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err()
}

func (s *RedisStore) load(ctx context.Context, session *gorsessions.Session) (bool, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+session.ID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return false, err
	}
	for k, v := range values {
		session.Values[k] = v
	}
	return true, nil
}

func (s *RedisStore) delete(ctx context.Context, session *gorsessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.rdb.Del(ctx, sessionKeyPrefix+session.ID).Err()
}

func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
