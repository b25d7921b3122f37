package customdomain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linkhub/internal/edge"
	"linkhub/internal/model"
)

const testCNAMETarget = "edge.linkhub.app"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.CustomDomain{}, &model.GracePeriod{}, &model.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeResolver returns canned DNS answers keyed by host
type fakeResolver struct {
	txt      map[string][]string
	cname    map[string]string
	txtErr   error
	cnameErr error
}

func (r *fakeResolver) LookupTXT(_ context.Context, host string) ([]string, error) {
	if r.txtErr != nil {
		return nil, r.txtErr
	}
	return r.txt[host], nil
}

func (r *fakeResolver) LookupCNAME(_ context.Context, host string) (string, error) {
	if r.cnameErr != nil {
		return "", r.cnameErr
	}
	return r.cname[host], nil
}

// fakeProvider records hostname creations and serves canned statuses
type fakeProvider struct {
	nextID      string
	createErr   error
	statusErr   error
	statuses    map[string]*edge.HostnameStatus
	createCalls int
}

func (p *fakeProvider) CreateHostname(_ context.Context, domain string) (string, error) {
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	return p.nextID, nil
}

func (p *fakeProvider) HostnameStatus(_ context.Context, id string) (*edge.HostnameStatus, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	if st, ok := p.statuses[id]; ok {
		return st, nil
	}
	return nil, edge.ErrHostnameNotFound
}

func newTestService(t *testing.T, resolver *fakeResolver, provider *fakeProvider) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	if provider == nil {
		provider = &fakeProvider{}
	}
	return NewService(db, resolver, provider, testLogger(), testCNAMETarget), db
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	d, err := svc.Create(1, "Links.Example.COM")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if d.Domain != "links.example.com" {
		t.Errorf("domain not normalized: %s", d.Domain)
	}
	if d.VerificationPhase != model.PhaseDNSVerification {
		t.Errorf("phase = %s, want dns_verification", d.VerificationPhase)
	}
	if d.SSLStatus != model.SSLStatusInitializing {
		t.Errorf("ssl status = %s, want initializing", d.SSLStatus)
	}
	if d.OwnershipTXTName != "_linkhub-challenge.links.example.com" {
		t.Errorf("txt name = %s", d.OwnershipTXTName)
	}
	if d.OwnershipTXTValue == "" {
		t.Error("expected a generated TXT challenge value")
	}
	if !d.IsEnabled {
		t.Error("new domains must start enabled")
	}

	// Same domain, different case, different user: still taken
	if _, err := svc.Create(2, "LINKS.example.com"); !errors.Is(err, ErrDomainTaken) {
		t.Errorf("expected ErrDomainTaken, got %v", err)
	}

	// Invalid hostname
	if _, err := svc.Create(1, "not a domain"); !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestVerify_DNSPhase(t *testing.T) {
	resolver := &fakeResolver{txt: map[string][]string{}, cname: map[string]string{}}
	provider := &fakeProvider{nextID: "ch-1"}
	svc, _ := newTestService(t, resolver, provider)

	d, err := svc.Create(1, "links.example.com")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Poll 1: nothing published yet
	got, err := svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.VerificationPhase != model.PhaseDNSVerification {
		t.Errorf("phase = %s, want dns_verification", got.VerificationPhase)
	}
	if got.ValidationErrorList() != nil {
		t.Errorf("unexpected validation errors: %v", got.ValidationErrorList())
	}
	if provider.createCalls != 0 {
		t.Errorf("hostname created too early (%d calls)", provider.createCalls)
	}

	// Poll 2: TXT published only
	resolver.txt[d.OwnershipTXTName] = []string{d.OwnershipTXTValue}
	got, err = svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if !got.OwnershipTXTVerified || got.CNAMEVerified {
		t.Errorf("flags = txt:%v cname:%v, want txt only", got.OwnershipTXTVerified, got.CNAMEVerified)
	}

	// Poll 3: CNAME published too; transitions and creates the hostname
	resolver.cname[d.Domain] = testCNAMETarget
	got, err = svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.VerificationPhase != model.PhaseEdgeSSL {
		t.Errorf("phase = %s, want edge_ssl", got.VerificationPhase)
	}
	if got.ProviderHostnameID != "ch-1" {
		t.Errorf("provider hostname id = %q, want ch-1", got.ProviderHostnameID)
	}
	if got.SSLStatus != model.SSLStatusPendingValidation {
		t.Errorf("ssl status = %s, want pending_validation", got.SSLStatus)
	}
	if provider.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", provider.createCalls)
	}
}

func TestVerify_ResolverOutageIsRecordedNotReturned(t *testing.T) {
	resolver := &fakeResolver{txtErr: errors.New("i/o timeout"), cnameErr: errors.New("i/o timeout")}
	svc, _ := newTestService(t, resolver, nil)

	d, _ := svc.Create(1, "links.example.com")

	got, err := svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() must not propagate resolver errors, got %v", err)
	}
	errs := got.ValidationErrorList()
	if len(errs) != 2 {
		t.Fatalf("expected 2 recorded lookup errors, got %v", errs)
	}
	if got.VerificationPhase != model.PhaseDNSVerification {
		t.Errorf("phase = %s, want dns_verification", got.VerificationPhase)
	}

	// Errors clear again on a clean poll
	resolver.txtErr, resolver.cnameErr = nil, nil
	got, err = svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.ValidationErrorList() != nil {
		t.Errorf("validation errors not cleared: %v", got.ValidationErrorList())
	}
}

func TestVerify_HostnameCreationRetry(t *testing.T) {
	resolver := &fakeResolver{
		txt:   map[string][]string{},
		cname: map[string]string{},
	}
	provider := &fakeProvider{nextID: "ch-9", createErr: errors.New("cloudflare unavailable")}
	svc, _ := newTestService(t, resolver, provider)

	d, _ := svc.Create(1, "links.example.com")
	resolver.txt[d.OwnershipTXTName] = []string{d.OwnershipTXTValue}
	resolver.cname[d.Domain] = testCNAMETarget

	// Transition succeeds but hostname creation fails
	got, err := svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.VerificationPhase != model.PhaseEdgeSSL {
		t.Fatalf("phase = %s, want edge_ssl", got.VerificationPhase)
	}
	if got.ProviderHostnameID != "" {
		t.Fatalf("unexpected hostname id %q", got.ProviderHostnameID)
	}
	if len(got.ValidationErrorList()) == 0 {
		t.Error("expected the creation failure recorded")
	}

	// Next poll retries the creation
	provider.createErr = nil
	got, err = svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.ProviderHostnameID != "ch-9" {
		t.Errorf("provider hostname id = %q, want ch-9", got.ProviderHostnameID)
	}
	if got.SSLStatus != model.SSLStatusPendingValidation {
		t.Errorf("ssl status = %s, want pending_validation", got.SSLStatus)
	}
}

func TestVerify_EdgePhaseActivates(t *testing.T) {
	provider := &fakeProvider{
		statuses: map[string]*edge.HostnameStatus{
			"ch-1": {SSLStatus: edge.StatusActive},
		},
	}
	svc, db := newTestService(t, nil, provider)

	d, _ := svc.Create(1, "links.example.com")
	db.Model(d).Updates(map[string]interface{}{
		"verification_phase":     model.PhaseEdgeSSL,
		"ssl_status":             model.SSLStatusPendingValidation,
		"provider_hostname_id":   "ch-1",
		"ownership_txt_verified": true,
		"cname_verified":         true,
	})

	got, err := svc.Verify(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.SSLStatus != model.SSLStatusActive {
		t.Errorf("ssl status = %s, want active", got.SSLStatus)
	}
	if got.OwnershipStatus != model.OwnershipStatusVerified {
		t.Errorf("ownership = %s, want verified", got.OwnershipStatus)
	}
}

func TestSetDefault(t *testing.T) {
	svc, db := newTestService(t, nil, nil)

	first, _ := svc.Create(1, "links.example.com")
	second, _ := svc.Create(1, "go.example.com")

	// Precondition: not verified yet
	if _, err := svc.SetDefault(first.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	activate := func(id int) {
		db.Model(&model.CustomDomain{}).Where("id = ?", id).Updates(map[string]interface{}{
			"ssl_status":       model.SSLStatusActive,
			"ownership_status": model.OwnershipStatusVerified,
		})
	}
	activate(first.ID)
	activate(second.ID)

	if _, err := svc.SetDefault(first.ID); err != nil {
		t.Fatalf("SetDefault() failed: %v", err)
	}
	if _, err := svc.SetDefault(second.ID); err != nil {
		t.Fatalf("SetDefault() failed: %v", err)
	}

	// Exactly one default per owner
	var defaults []model.CustomDomain
	db.Where("user_id = ? AND is_default = ?", 1, true).Find(&defaults)
	if len(defaults) != 1 || defaults[0].ID != second.ID {
		t.Errorf("expected only domain %d as default, got %+v", second.ID, defaults)
	}
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t, nil, nil)

	d, _ := svc.Create(1, "links.example.com")
	if err := svc.Delete(d.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := svc.Delete(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	var count int64
	db.Model(&model.CustomDomain{}).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 domains, got %d", count)
	}
}

func TestDisableEnableAllByUser(t *testing.T) {
	svc, db := newTestService(t, nil, nil)

	a, _ := svc.Create(1, "links.example.com")
	b, _ := svc.Create(1, "go.example.com")
	other, _ := svc.Create(2, "links.other.com")

	if err := svc.DisableAllByUser(1); err != nil {
		t.Fatalf("DisableAllByUser() failed: %v", err)
	}

	assertEnabled := func(id int, want bool) {
		var d model.CustomDomain
		db.First(&d, id)
		if d.IsEnabled != want {
			t.Errorf("domain %d enabled = %v, want %v", id, d.IsEnabled, want)
		}
	}
	assertEnabled(a.ID, false)
	assertEnabled(b.ID, false)
	assertEnabled(other.ID, true)

	if err := svc.EnableAllByUser(1); err != nil {
		t.Fatalf("EnableAllByUser() failed: %v", err)
	}
	assertEnabled(a.ID, true)
	assertEnabled(b.ID, true)
}

func TestSetupInstructions(t *testing.T) {
	svc, db := newTestService(t, nil, nil)

	d, _ := svc.Create(1, "app.links.example.com")

	inst, err := svc.SetupInstructions(d.ID)
	if err != nil {
		t.Fatalf("SetupInstructions() failed: %v", err)
	}
	if inst.Phase != model.PhaseDNSVerification {
		t.Errorf("phase = %s", inst.Phase)
	}
	if len(inst.Records) != 2 {
		t.Fatalf("expected TXT+CNAME records, got %+v", inst.Records)
	}
	if inst.Records[0].Type != "TXT" || inst.Records[0].Host != "_linkhub-challenge.app.links" {
		t.Errorf("TXT instruction = %+v", inst.Records[0])
	}
	if inst.Records[1].Type != "CNAME" || inst.Records[1].Host != "app.links" || inst.Records[1].Value != testCNAMETarget {
		t.Errorf("CNAME instruction = %+v", inst.Records[1])
	}

	// edge_ssl phase exposes the TLS validation record only
	db.Model(d).Updates(map[string]interface{}{
		"verification_phase": model.PhaseEdgeSSL,
		"ssl_txt_name":       "_acme-challenge.app.links.example.com",
		"ssl_txt_value":      "tls-token",
	})
	inst, err = svc.SetupInstructions(d.ID)
	if err != nil {
		t.Fatalf("SetupInstructions() failed: %v", err)
	}
	if len(inst.Records) != 1 || inst.Records[0].Host != "_acme-challenge.app.links.example.com" {
		t.Errorf("edge_ssl instructions = %+v", inst.Records)
	}

	// Fully active: nothing to publish
	db.Model(d).Updates(map[string]interface{}{
		"ssl_status":       model.SSLStatusActive,
		"ownership_status": model.OwnershipStatusVerified,
	})
	inst, err = svc.SetupInstructions(d.ID)
	if err != nil {
		t.Fatalf("SetupInstructions() failed: %v", err)
	}
	if inst.Records != nil {
		t.Errorf("expected no records, got %+v", inst.Records)
	}
}
