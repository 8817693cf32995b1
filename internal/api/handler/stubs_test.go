package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/api/middleware"
	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

type stubIdentityService struct {
	registerFn     func(ctx context.Context, in ports.RegisterIdentityInput) (*domain.Identity, error)
	getFn          func(ctx context.Context, id int64) (*domain.Identity, error)
	getByExtFn     func(ctx context.Context, externalID int64) (*domain.Identity, error)
	getByNameFn    func(ctx context.Context, name string) (*domain.Identity, error)
	listFn         func(ctx context.Context) ([]*domain.Identity, error)
	updateFn       func(ctx context.Context, id int64, patch domain.IdentityPatch) (*domain.Identity, error)
	deleteFn       func(ctx context.Context, id int64) (*domain.Identity, error)
	loginFn        func(ctx context.Context, name string) (*domain.LoginAck, error)
	verifyFn       func(ctx context.Context, credential string) (*domain.SessionToken, error)
	authenticateFn func(ctx context.Context, header string) (*domain.IdentitySnapshot, error)
}

func (s *stubIdentityService) Register(ctx context.Context, in ports.RegisterIdentityInput) (*domain.Identity, error) {
	return s.registerFn(ctx, in)
}

func (s *stubIdentityService) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.getFn(ctx, id)
}

func (s *stubIdentityService) GetByExternalID(ctx context.Context, externalID int64) (*domain.Identity, error) {
	return s.getByExtFn(ctx, externalID)
}

func (s *stubIdentityService) GetByDisplayName(ctx context.Context, name string) (*domain.Identity, error) {
	return s.getByNameFn(ctx, name)
}

func (s *stubIdentityService) List(ctx context.Context) ([]*domain.Identity, error) {
	return s.listFn(ctx)
}

func (s *stubIdentityService) Update(ctx context.Context, id int64, patch domain.IdentityPatch) (*domain.Identity, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubIdentityService) Delete(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubIdentityService) Login(ctx context.Context, name string) (*domain.LoginAck, error) {
	return s.loginFn(ctx, name)
}

func (s *stubIdentityService) Verify(ctx context.Context, credential string) (*domain.SessionToken, error) {
	return s.verifyFn(ctx, credential)
}

func (s *stubIdentityService) Authenticate(ctx context.Context, header string) (*domain.IdentitySnapshot, error) {
	return s.authenticateFn(ctx, header)
}

type stubPostService struct {
	createFn func(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error)
	getFn    func(ctx context.Context, id int64) (*domain.Post, error)
	listFn   func(ctx context.Context) ([]*domain.Post, error)
	updateFn func(ctx context.Context, id int64, patch domain.PostPatch) (*domain.Post, error)
	deleteFn func(ctx context.Context, id int64) (*domain.Post, error)
}

func (s *stubPostService) Create(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	return s.createFn(ctx, in)
}

func (s *stubPostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.getFn(ctx, id)
}

func (s *stubPostService) List(ctx context.Context) ([]*domain.Post, error) {
	return s.listFn(ctx)
}

func (s *stubPostService) Update(ctx context.Context, id int64, patch domain.PostPatch) (*domain.Post, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubPostService) Delete(ctx context.Context, id int64) (*domain.Post, error) {
	return s.deleteFn(ctx, id)
}

// newTestContext builds an echo context with a JSON body, the validator
// installed and, when caller is non-nil, an authenticated identity.
func newTestContext(method, target, body string, caller *domain.IdentitySnapshot) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != nil {
		c.Set(middleware.IdentityKey, *caller)
	}
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
