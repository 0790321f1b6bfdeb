package usecase

import (
	"context"
	"testing"
	"time"

	"comictalk/infrastructure/cache"
	"comictalk/infrastructure/db"
	"comictalk/internal/entity"
	"comictalk/internal/repository"

	"github.com/rs/zerolog"
)

type testEnv struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	userUC   UserUsecase
	msgUC    MessageUsecase
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
	userUC := NewUserUseCase(users, profileCache, zerolog.Nop())

	return &testEnv{
		users:    users,
		messages: messages,
		userUC:   userUC,
		msgUC:    NewMessageUseCase(messages, userUC, zerolog.Nop()),
	}
}

func (e *testEnv) createUser(t *testing.T, email, fullname string) entity.User {
	t.Helper()

	user, err := e.users.Create(context.Background(), entity.User{
		Email:        email,
		PasswordHash: "x",
		Fullname:     fullname,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (e *testEnv) send(t *testing.T, from, to int64, body string) entity.Message {
	t.Helper()

	msg, err := e.msgUC.Send(context.Background(), from, to, body)
	if err != nil {
		t.Fatalf("Send(%d -> %d) error = %v", from, to, err)
	}
	return msg
}

type sentMail struct {
	to, subject, body string
}

// recordingMailer captures outgoing mail for assertions.
type recordingMailer struct {
	sent chan sentMail
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan sentMail, 8)}
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func (m *recordingMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail")
		return sentMail{}
	}
}
