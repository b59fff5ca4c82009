// Package session keeps the signed-in identity and the shopping cart in a
// server-side session addressed by an opaque cookie token.
package session

import (
	"context"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gofrs/uuid"

	"github.com/NGxID18/CureCart/internal/cart"
)

const (
	CookieName = "curecart_session"

	keyIdentity = "identity"
	keyCart     = "cart"
	keyFlash    = "flash"
)

// Identity is what the session remembers about the signed-in user.
type Identity struct {
	ID      uuid.UUID
	Name    string
	Email   string
	IsAdmin bool
}

func init() {
	gob.Register(Identity{})
}

type Options struct {
	Lifetime time.Duration
	Secure   bool
}

type Manager struct {
	sm *scs.SessionManager
}

func New(store scs.Store, opts Options) *Manager {
	sm := scs.New()
	sm.Store = store
	sm.Lifetime = opts.Lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = opts.Secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Persist = true
	return &Manager{sm: sm}
}

// LoadAndSave loads the session for each request and commits it before the
// response headers are written.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.sm.LoadAndSave(next)
}

// Login rotates the session token to prevent fixation and stores the
// identity.
func (m *Manager) Login(ctx context.Context, id Identity) error {
	if err := m.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("session: failed to renew token: %w", err)
	}
	m.sm.Put(ctx, keyIdentity, id)
	return nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("session: failed to destroy: %w", err)
	}
	return nil
}

func (m *Manager) Identity(ctx context.Context) (Identity, bool) {
	id, ok := m.sm.Get(ctx, keyIdentity).(Identity)
	return id, ok
}

func (m *Manager) UpdateName(ctx context.Context, name string) {
	id, ok := m.Identity(ctx)
	if !ok {
		return
	}
	id.Name = name
	m.sm.Put(ctx, keyIdentity, id)
}

func (m *Manager) Cart(ctx context.Context) cart.Cart {
	c, _ := m.sm.Get(ctx, keyCart).(cart.Cart)
	return c
}

func (m *Manager) SaveCart(ctx context.Context, c cart.Cart) {
	m.sm.Put(ctx, keyCart, c)
}

func (m *Manager) ClearCart(ctx context.Context) {
	m.sm.Remove(ctx, keyCart)
}

func (m *Manager) Flash(ctx context.Context, message string) {
	m.sm.Put(ctx, keyFlash, message)
}

func (m *Manager) PopFlash(ctx context.Context) string {
	return m.sm.PopString(ctx, keyFlash)
}
