package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"comictalk/infrastructure/cache"
	"comictalk/infrastructure/db"
	"comictalk/infrastructure/mail"
	"comictalk/infrastructure/ws"
	"comictalk/internal/entity"
	"comictalk/internal/repository"
	"comictalk/internal/usecase"
	"comictalk/pkg/jwt"

	"github.com/rs/zerolog"
)

type testEnv struct {
	hub       *ws.Hub
	users     repository.UserRepository
	userUc    usecase.UserUsecase
	messageUc usecase.MessageUsecase
	authUc    usecase.AuthUsecase
	jwt       *jwt.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := db.NewSQLStore(context.Background(), db.DriverSQLite, "")
	if err != nil {
		t.Fatalf("NewSQLStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	profileCache := cache.NewMemCache(0)
	t.Cleanup(profileCache.Close)

	users := repository.NewGormUserRepository(store.DB)
	messages := repository.NewGormMessageRepository(store.DB)
	userUc := usecase.NewUserUseCase(users, profileCache, zerolog.Nop())
	jwtManager := jwt.NewJWTManager("test-secret", time.Hour)

	hub := ws.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return &testEnv{
		hub:       hub,
		users:     users,
		userUc:    userUc,
		messageUc: usecase.NewMessageUseCase(messages, userUc, zerolog.Nop()),
		authUc:    usecase.NewAuthUsecase(users, jwtManager, mail.NewLogMailer(zerolog.Nop()), zerolog.Nop()),
		jwt:       jwtManager,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) entity.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), entity.User{Email: email, PasswordHash: "x", Fullname: email})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) newSession(userId int64) (*Session, *ws.UserClient) {
	client := ws.NewClient(userId, nil, ws.ClientConfig{RateLimitBurst: 100}, zerolog.Nop())
	return NewSession(client, e.hub, e.messageUc, e.userUc, zerolog.Nop()), client
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return raw
}

// waitFor returns the data of the first event named name for which match
// returns true, skipping everything else.
func waitFor(t *testing.T, frames <-chan []byte, name string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				t.Fatalf("connection closed while waiting for %s", name)
			}
			var ev entity.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("bad frame %q: %v", raw, err)
			}
			if ev.Event == name && (match == nil || match(ev.Data)) {
				return ev.Data
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", name)
			return nil
		}
	}
}

// drain returns the names of the frames currently buffered.
func drain(frames <-chan []byte) []string {
	var names []string
	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				return names
			}
			var ev entity.Event
			_ = json.Unmarshal(raw, &ev)
			names = append(names, ev.Event)
		default:
			return names
		}
	}
}

func onlineExactly(ids ...int64) func(json.RawMessage) bool {
	return func(data json.RawMessage) bool {
		var online []int64
		if err := json.Unmarshal(data, &online); err != nil || len(online) != len(ids) {
			return false
		}
		for i := range ids {
			if online[i] != ids[i] {
				return false
			}
		}
		return true
	}
}
