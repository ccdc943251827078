package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/features/auth/models"
	"agrihub-backend/internal/features/auth/repository"
	channelservice "agrihub-backend/internal/features/channel/service"
	usermodels "agrihub-backend/internal/features/user/models"
	userrepo "agrihub-backend/internal/features/user/repository"
)

type fakeUsers struct {
	byUID   map[string]*usermodels.User
	byEmail map[string]*usermodels.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byUID:   make(map[string]*usermodels.User),
		byEmail: make(map[string]*usermodels.User),
	}
}

func (f *fakeUsers) Create(ctx context.Context, u *usermodels.User) error {
	f.byUID[u.UID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) GetByUID(ctx context.Context, uid string) (*usermodels.User, error) {
	u, ok := f.byUID[uid]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Update(ctx context.Context, u *usermodels.User) error {
	f.byUID[u.UID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, uid string) error {
	delete(f.byUID, uid)
	return nil
}

func (f *fakeUsers) List(ctx context.Context) ([]*usermodels.User, error) {
	out := make([]*usermodels.User, 0, len(f.byUID))
	for _, u := range f.byUID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) SetChannels(ctx context.Context, uid string, channels []string) error {
	u, ok := f.byUID[uid]
	if !ok {
		return userrepo.ErrNotFound
	}
	u.AllowedChannels = channels
	return nil
}

func (f *fakeUsers) SetRole(ctx context.Context, uid string, role usermodels.Role) error {
	u, ok := f.byUID[uid]
	if !ok {
		return userrepo.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) SetLastSpinTime(ctx context.Context, uid string, ts int64) error {
	u, ok := f.byUID[uid]
	if !ok {
		return userrepo.ErrNotFound
	}
	u.LastSpinTime = ts
	return nil
}

func (f *fakeUsers) HasAdmin(ctx context.Context) (bool, error) {
	for _, u := range f.byUID {
		if u.Role == usermodels.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

type fakeCodes struct {
	codes map[string]*models.ProductCode
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{codes: make(map[string]*models.ProductCode)}
}

func (f *fakeCodes) Get(ctx context.Context, code string) (*models.ProductCode, error) {
	pc, ok := f.codes[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	return pc, nil
}

func (f *fakeCodes) Create(ctx context.Context, code *models.ProductCode) error {
	f.codes[code.Code] = code
	return nil
}

func (f *fakeCodes) MarkUsed(ctx context.Context, code, uid string) error {
	pc, ok := f.codes[code]
	if !ok {
		return repository.ErrCodeNotFound
	}
	pc.IsUsed = true
	pc.UsedBy = uid
	return nil
}

func (f *fakeCodes) List(ctx context.Context) ([]*models.ProductCode, error) {
	out := make([]*models.ProductCode, 0, len(f.codes))
	for _, pc := range f.codes {
		out = append(out, pc)
	}
	return out, nil
}

type fakeSessions struct {
	records map[string]*models.SessionRecord
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{records: make(map[string]*models.SessionRecord)}
}

func (f *fakeSessions) Save(ctx context.Context, rec *models.SessionRecord) error {
	f.records[rec.UID] = rec
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, uid string) (*models.SessionRecord, error) {
	rec, ok := f.records[uid]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return rec, nil
}

func (f *fakeSessions) Delete(ctx context.Context, uid string) error {
	delete(f.records, uid)
	return nil
}

type fakeResets struct {
	tokens map[string]string
}

func newFakeResets() *fakeResets {
	return &fakeResets{tokens: make(map[string]string)}
}

func (f *fakeResets) Save(ctx context.Context, token, uid string) error {
	f.tokens[token] = uid
	return nil
}

func (f *fakeResets) Consume(ctx context.Context, token string) (string, error) {
	uid, ok := f.tokens[token]
	if !ok {
		return "", repository.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return uid, nil
}

type authFixture struct {
	svc      AuthService
	users    *fakeUsers
	codes    *fakeCodes
	sessions *fakeSessions
	resets   *fakeResets
}

func newAuthFixture(masterCode string) *authFixture {
	f := &authFixture{
		users:    newFakeUsers(),
		codes:    newFakeCodes(),
		sessions: newFakeSessions(),
		resets:   newFakeResets(),
	}
	f.svc = NewAuthService(Config{
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		MasterCode:       masterCode,
		PhoneEmailDomain: "members.agrihub.local",
	}, f.users, f.codes, f.sessions, f.resets, channelservice.NewRegistry(nil))
	return f
}

func (f *authFixture) addCode(code string) {
	f.codes.codes[code] = &models.ProductCode{Code: code}
}

func TestRegisterWithPhoneNumber(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")

	resp, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "0912 345 678",
		Password:    "Secret1",
		ProductCode: "agri-12345678",
		DisplayName: "Farmer A",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.Token)

	// The phone number is normalized onto the synthetic email domain and the
	// code is matched case-insensitively.
	assert.Equal(t, "0912345678@members.agrihub.local", resp.User.Email)
	assert.Equal(t, "0912345678", resp.User.PhoneNumber)
	assert.Equal(t, usermodels.RoleUser, resp.User.Role)
	assert.Equal(t, []string{"general"}, resp.User.AllowedChannels)
	assert.True(t, f.codes.codes["AGRI-12345678"].IsUsed)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")

	for _, password := range []string{"short", "nouppercase1", "Abc12"} {
		_, err := f.svc.Register(context.Background(), models.RegisterRequest{
			Identifier:  "0912345678",
			Password:    password,
			ProductCode: "AGRI-12345678",
		})
		require.Error(t, err, password)
		appErr, _ := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code, password)
	}
}

func TestRegisterInvalidCode(t *testing.T) {
	f := newAuthFixture("")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "0912345678",
		Password:    "Secret1",
		ProductCode: "NOPE-00000000",
	})
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeInvalidCode, appErr.Code)
}

func TestRegisterUsedCode(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")
	f.codes.codes["AGRI-12345678"].IsUsed = true

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "0912345678",
		Password:    "Secret1",
		ProductCode: "AGRI-12345678",
	})
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeCodeUsed, appErr.Code)
}

func TestRegisterDuplicateIdentifier(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-11111111")
	f.addCode("AGRI-22222222")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "farmer@example.com",
		Password:    "Secret1",
		ProductCode: "AGRI-11111111",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "Farmer@Example.com",
		Password:    "Secret1",
		ProductCode: "AGRI-22222222",
	})
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestMasterCodeBootstrapsFirstAdmin(t *testing.T) {
	f := newAuthFixture("MASTER-SEED")

	resp, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "owner@agrihub.vn",
		Password:    "Secret1",
		ProductCode: "MASTER-SEED",
	})
	require.NoError(t, err)
	assert.Equal(t, usermodels.RoleAdmin, resp.User.Role)
	assert.Len(t, resp.User.AllowedChannels, 5)
}

func TestMasterCodeRejectedOnceAdminExists(t *testing.T) {
	f := newAuthFixture("MASTER-SEED")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "owner@agrihub.vn",
		Password:    "Secret1",
		ProductCode: "MASTER-SEED",
	})
	require.NoError(t, err)

	// The bootstrap code is single-purpose: with an admin in place it is
	// indistinguishable from an invalid code.
	_, err = f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "intruder@example.com",
		Password:    "Secret1",
		ProductCode: "MASTER-SEED",
	})
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeInvalidCode, appErr.Code)
}

func TestMasterCodeDisabledWhenUnset(t *testing.T) {
	f := newAuthFixture("")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "owner@agrihub.vn",
		Password:    "Secret1",
		ProductCode: "",
	})
	require.Error(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "0912345678",
		Password:    "Secret1",
		ProductCode: "AGRI-12345678",
	})
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{
		Identifier: "0912345678",
		Password:   "Secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	id, err := models.ParseToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.UID, id.UID)
	// Regular accounts carry no role claim; the role is resolved from the
	// profile per request.
	assert.Empty(t, id.Role)
	assert.False(t, id.Lightweight)
}

func TestLoginWrongPasswordAndMissingAccountLookAlike(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "0912345678",
		Password:    "Secret1",
		ProductCode: "AGRI-12345678",
	})
	require.NoError(t, err)

	_, wrongPass := apperrors.AsAppError(mustErr(f.svc.Login(context.Background(), models.LoginRequest{
		Identifier: "0912345678", Password: "Wrong1x",
	})))
	_, noAccount := apperrors.AsAppError(mustErr(f.svc.Login(context.Background(), models.LoginRequest{
		Identifier: "0999999999", Password: "Secret1",
	})))
	assert.True(t, wrongPass)
	assert.True(t, noAccount)

	err1 := mustErr(f.svc.Login(context.Background(), models.LoginRequest{Identifier: "0912345678", Password: "Wrong1x"}))
	err2 := mustErr(f.svc.Login(context.Background(), models.LoginRequest{Identifier: "0999999999", Password: "Secret1"}))
	assert.Equal(t, err1.Error(), err2.Error(), "login failures must not reveal whether the account exists")
}

func mustErr(_ *models.AuthResponse, err error) error {
	return err
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture("")
	f.addCode("AGRI-12345678")

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Identifier:  "farmer@example.com",
		Password:    "Secret1",
		ProductCode: "AGRI-12345678",
	})
	require.NoError(t, err)

	token, err := f.svc.RequestPasswordReset(context.Background(), "farmer@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), token, "NewSecret1"))

	user := f.users.byEmail["farmer@example.com"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("NewSecret1")))

	// Tokens are single use.
	err = f.svc.ConfirmPasswordReset(context.Background(), token, "OtherSecret1")
	require.Error(t, err)
}

func TestPasswordResetUnknownAccountSilent(t *testing.T) {
	f := newAuthFixture("")

	token, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestPasswordResetPhoneAccountDirectedToSupport(t *testing.T) {
	f := newAuthFixture("")

	_, err := f.svc.RequestPasswordReset(context.Background(), "0912345678")
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestGenerateCodes(t *testing.T) {
	f := newAuthFixture("")

	codes, err := f.svc.GenerateCodes(context.Background(), "bte", 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)
	for _, c := range codes {
		assert.Regexp(t, `^BTE-[0-9A-F]{8}$`, c)
	}

	_, err = f.svc.GenerateCodes(context.Background(), "", 0)
	require.Error(t, err)
	_, err = f.svc.GenerateCodes(context.Background(), "", 1001)
	require.Error(t, err)
}
