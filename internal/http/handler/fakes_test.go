package handler

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/domain/profile"
	"hardhat-gateway/internal/domain/submission"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
)

// In-memory repository fakes shared across the handler tests.

type fakeLinks struct {
	mu    sync.Mutex
	links []*code.AccessLink
}

func (f *fakeLinks) Create(_ context.Context, input code.CreateAccessLinkInput) (*code.AccessLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link := &code.AccessLink{
		ID:        uuid.New(),
		Email:     input.Email,
		CodeHash:  input.CodeHash,
		Product:   input.Product,
		ExpiresAt: input.ExpiresAt,
		CreatedAt: time.Now(),
	}
	f.links = append(f.links, link)
	return link, nil
}

func (f *fakeLinks) FindByEmailAndHash(_ context.Context, email, codeHash string) (*code.AccessLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Email == email && l.CodeHash == codeHash {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeLinks) FindByHash(_ context.Context, codeHash string) (*code.AccessLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.CodeHash == codeHash {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeLinks) ListActive(_ context.Context, email string) ([]*code.AccessLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*code.AccessLink
	for _, l := range f.links {
		if l.Email == email && !l.Used && l.ExpiresAt.After(time.Now()) {
			active = append(active, l)
		}
	}
	return active, nil
}

func (f *fakeLinks) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.ID == id {
			l.LastUsedAt = &at
		}
	}
	return nil
}

func (f *fakeLinks) MarkUsed(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.ID == id {
			if l.Used {
				return false, nil
			}
			l.Used = true
			return true, nil
		}
	}
	return false, nil
}

type fakeCustomers struct {
	mu        sync.Mutex
	customers map[string]*code.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{customers: map[string]*code.Customer{}}
}

func (f *fakeCustomers) Upsert(_ context.Context, email string) (*code.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[email]; ok {
		return c, nil
	}
	c := &code.Customer{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	f.customers[email] = c
	return c, nil
}

func (f *fakeCustomers) GetByEmail(_ context.Context, email string) (*code.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers[email], nil
}

// fakeMonthly keys the active row by customer; the customers fake resolves
// emails the way the real join does.
type fakeMonthly struct {
	mu        sync.Mutex
	customers *fakeCustomers
	active    map[uuid.UUID]*code.MonthlyCode
}

func newFakeMonthly(customers *fakeCustomers) *fakeMonthly {
	return &fakeMonthly{customers: customers, active: map[uuid.UUID]*code.MonthlyCode{}}
}

func (f *fakeMonthly) Save(_ context.Context, input code.SaveMonthlyCodeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[input.CustomerID] = &code.MonthlyCode{
		ID:         uuid.New(),
		CustomerID: input.CustomerID,
		MonthKey:   input.MonthKey,
		CodeHash:   input.CodeHash,
		ExpiresAt:  input.ExpiresAt,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (f *fakeMonthly) FindActive(ctx context.Context, email string) (*code.MonthlyCode, error) {
	customer, err := f.customers.GetByEmail(ctx, email)
	if err != nil || customer == nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.active[customer.ID]
	if row == nil || !row.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return row, nil
}

func (f *fakeMonthly) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.active {
		if row.ID == id {
			row.LastUsedAt = &at
		}
	}
	return nil
}

func (f *fakeMonthly) MarkUsed(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.active {
		if row.ID == id {
			if row.Used {
				return false, nil
			}
			row.Used = true
			return true, nil
		}
	}
	return false, nil
}

type fakeProfiles struct {
	mu        sync.Mutex
	defaults  map[string]*profile.Defaults
	upsertErr error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{defaults: map[string]*profile.Defaults{}}
}

func profileKey(email, product string) string { return email + "|" + product }

func (f *fakeProfiles) Get(_ context.Context, email, product string) (*profile.Defaults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defaults[profileKey(email, product)], nil
}

func (f *fakeProfiles) Upsert(_ context.Context, d *profile.Defaults) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults[profileKey(d.Email, d.Product)] = d
	return nil
}

type fakeSubmissions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*submission.Submission
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{rows: map[uuid.UUID]*submission.Submission{}}
}

func (f *fakeSubmissions) Create(_ context.Context, input submission.CreateInput) (*submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &submission.Submission{
		ID:            uuid.New(),
		Product:       input.Product,
		CustomerEmail: input.CustomerEmail,
		AccessCode:    input.AccessCode,
		Placeholders:  input.Placeholders,
		Uploads:       input.Uploads,
		AIInput:       input.AIInput,
		CreatedAt:     time.Now(),
	}
	f.rows[sub.ID] = sub
	return sub, nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, id uuid.UUID) (*submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.rows[id]
	if !ok {
		return nil, apperrors.NotFound("submission not found")
	}
	return sub, nil
}

func (f *fakeSubmissions) SetErrorIfPending(_ context.Context, id uuid.UUID, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.rows[id]
	if !ok || sub.DeriveStatus() != submission.StatusPending {
		return false, nil
	}
	sub.Outputs.Error = message
	return true, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	seen      map[string]bool
	processed map[string]string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{seen: map[string]bool{}, processed: map[string]string{}}
}

func (f *fakeEvents) Record(_ context.Context, provider, eventID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := provider + ":" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeEvents) MarkProcessed(_ context.Context, provider, eventID, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[provider+":"+eventID] = processingError
	return nil
}

// fakeEmailer satisfies both delivery interfaces the handlers reach through.
type fakeEmailer struct {
	mu         sync.Mutex
	magicLinks []string
	accessTo   []string
}

func (f *fakeEmailer) SendMagicLink(_ context.Context, to, plainCode string, _ int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.magicLinks = append(f.magicLinks, to+":"+plainCode)
	return nil
}

func (f *fakeEmailer) SendAccessCode(_ context.Context, to string, _ code.Product, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTo = append(f.accessTo, to)
	return nil
}

type fakeGenerator struct {
	kicked chan string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{kicked: make(chan string, 4)}
}

func (f *fakeGenerator) Kickoff(_ context.Context, submissionID string) error {
	f.kicked <- submissionID
	return nil
}

func (f *fakeGenerator) FetchArtifact(_ context.Context, _ string, _ submission.Format) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("artifact bytes")), nil
}
