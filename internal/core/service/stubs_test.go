package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

// --- in-memory account store ---

type memData struct {
	profiles    map[string]domain.Profile
	credentials map[string]domain.Credential
}

func (d memData) clone() memData {
	c := memData{
		profiles:    make(map[string]domain.Profile, len(d.profiles)),
		credentials: make(map[string]domain.Credential, len(d.credentials)),
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.credentials {
		c.credentials[k] = v
	}
	return c
}

// memStore is an AccountStore whose transactions work on a copy and replace
// the committed state only when fn succeeds.
type memStore struct {
	mu     sync.Mutex
	data   memData
	seq    int
	writes int

	// txReads lists the record kinds read inside transactions, in order.
	txReads []string

	// failCredentialInsert makes the next credential insert fail.
	failCredentialInsert error
}

func newMemStore() *memStore {
	return &memStore{data: memData{
		profiles:    map[string]domain.Profile{},
		credentials: map[string]domain.Credential{},
	}}
}

func (s *memStore) Profiles() ports.ProfileRepository       { return &memProfiles{s: s, d: &s.data} }
func (s *memStore) Credentials() ports.CredentialRepository { return &memCredentials{s: s, d: &s.data} }

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.AccountRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	tx := memTx{s: s, d: &work}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *memStore) profileCount() int    { return len(s.data.profiles) }
func (s *memStore) credentialCount() int { return len(s.data.credentials) }

func (s *memStore) credentialFor(profileID string) (domain.Credential, bool) {
	for _, c := range s.data.credentials {
		if c.ProfileID == profileID {
			return c, true
		}
	}
	return domain.Credential{}, false
}

type memTx struct {
	s *memStore
	d *memData
}

func (t memTx) Profiles() ports.ProfileRepository { return &memProfiles{s: t.s, d: t.d, tx: true} }
func (t memTx) Credentials() ports.CredentialRepository {
	return &memCredentials{s: t.s, d: t.d, tx: true}
}

type memProfiles struct {
	s  *memStore
	d  *memData
	tx bool
}

func (r *memProfiles) conflict(p *domain.Profile) error {
	for id, other := range r.d.profiles {
		if id == p.ID {
			continue
		}
		if other.Username == p.Username {
			return domain.ErrDuplicateUsername
		}
		if other.Email == p.Email {
			return domain.ErrDuplicateEmail
		}
	}
	return nil
}

func (r *memProfiles) Insert(_ context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = r.s.nextID("p-")
	}
	if err := r.conflict(p); err != nil {
		return err
	}
	r.s.writes++
	r.d.profiles[p.ID] = *p
	return nil
}

func (r *memProfiles) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	if r.tx {
		r.s.txReads = append(r.s.txReads, "profile")
	}
	p, ok := r.d.profiles[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &p, nil
}

func (r *memProfiles) FindByUsername(_ context.Context, username string) (*domain.Profile, error) {
	for _, p := range r.d.profiles {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memProfiles) FindByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range r.d.profiles {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memProfiles) FindAll(_ context.Context) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(r.d.profiles))
	for _, p := range r.d.profiles {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (r *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	if _, ok := r.d.profiles[p.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	if err := r.conflict(p); err != nil {
		return err
	}
	r.s.writes++
	r.d.profiles[p.ID] = *p
	return nil
}

func (r *memProfiles) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.d.profiles[id]; !ok {
		return domain.ErrAccountNotFound
	}
	r.s.writes++
	delete(r.d.profiles, id)
	return nil
}

type memCredentials struct {
	s  *memStore
	d  *memData
	tx bool
}

func (r *memCredentials) Insert(_ context.Context, c *domain.Credential) error {
	if err := r.s.failCredentialInsert; err != nil {
		r.s.failCredentialInsert = nil
		return err
	}
	if c.ID == "" {
		c.ID = r.s.nextID("c-")
	}
	for _, other := range r.d.credentials {
		if other.Login == c.Login {
			return domain.ErrDuplicateUsername
		}
	}
	r.s.writes++
	r.d.credentials[c.ID] = *c
	return nil
}

func (r *memCredentials) FindByID(_ context.Context, id string) (*domain.Credential, error) {
	c, ok := r.d.credentials[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &c, nil
}

func (r *memCredentials) FindByLogin(_ context.Context, login string) (*domain.Credential, error) {
	for _, c := range r.d.credentials {
		if c.Login == login {
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memCredentials) FindByProfileID(_ context.Context, profileID string) (*domain.Credential, error) {
	if r.tx {
		r.s.txReads = append(r.s.txReads, "credential")
	}
	for _, c := range r.d.credentials {
		if c.ProfileID == profileID {
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memCredentials) Update(_ context.Context, c *domain.Credential) error {
	if _, ok := r.d.credentials[c.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	for id, other := range r.d.credentials {
		if id != c.ID && other.Login == c.Login {
			return domain.ErrDuplicateUsername
		}
	}
	r.s.writes++
	r.d.credentials[c.ID] = *c
	return nil
}

func (r *memCredentials) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.d.credentials[id]; !ok {
		return domain.ErrAccountNotFound
	}
	r.s.writes++
	delete(r.d.credentials, id)
	return nil
}

// --- guards ---

// renamingGuard allows the call and then renames the target's credential
// before the service opens its transaction.
type renamingGuard struct {
	store *memStore
	to    string
}

func (g renamingGuard) Authorize(_ context.Context, _ domain.CallerIdentity, targetID string) error {
	for id, c := range g.store.data.credentials {
		if c.ProfileID == targetID {
			c.Login = g.to
			g.store.data.credentials[id] = c
		}
	}
	return nil
}

// --- hasher ---

type stubHasher struct {
	mu       sync.Mutex
	verified []string
	hashErr  error
}

func (h *stubHasher) Hash(plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (h *stubHasher) Verify(plaintext, hash string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, hash)
	h.mu.Unlock()
	return hash == "hashed:"+plaintext
}

// --- notifier ---

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []domain.Notification
	err   error
	panic bool
}

func (n *recordingNotifier) Notify(_ context.Context, note domain.Notification) error {
	if n.panic {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return domain.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

// --- token issuer ---

type stubIssuer struct {
	err error
}

func (i stubIssuer) Issue(id domain.CallerIdentity) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return "token-for-" + id.Login, nil
}

func (i stubIssuer) Parse(string) (*domain.CallerIdentity, error) {
	return nil, errors.New("not implemented")
}

func strPtr(s string) *string { return &s }
