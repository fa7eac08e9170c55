package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/identity/internal/api/metrics"
	"github.com/storefront/identity/internal/api/middleware"
	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

// UserHandler serves the /user routes.
type UserHandler struct {
	auth         ports.AuthService
	resolver     ports.IdentityResolver
	secureCookie bool
}

func NewUserHandler(auth ports.AuthService, resolver ports.IdentityResolver, secureCookie bool) *UserHandler {
	return &UserHandler{auth: auth, resolver: resolver, secureCookie: secureCookie}
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /user/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", failureLabel(err)).Inc()
		return httpError(err)
	}
	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()

	h.setTokenCookie(c, token)
	return c.JSON(http.StatusOK, authResponse{Success: true, Message: "login successful", Token: token, User: user})
}

// Register creates an account from a multipart form with an optional avatar.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       mpfd
// @Produce      json
// @Param        name      formData  string  true   "Display name"
// @Param        email     formData  string  true   "Email"
// @Param        password  formData  string  true   "Password"
// @Param        phone     formData  string  false  "Phone"
// @Param        address   formData  string  false  "Address"
// @Param        city      formData  string  false  "City"
// @Param        country   formData  string  false  "Country"
// @Param        avatar    formData  file    false  "Profile picture"
// @Success      201       {object}  authResponse
// @Failure      400       {object}  errorResponse
// @Router       /user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	in := ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
	}

	file, err := c.FormFile("avatar")
	switch {
	case err == nil:
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable avatar"})
		}
		defer src.Close()
		in.Avatar = &ports.AvatarUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get(echo.HeaderContentType),
			Size:        file.Size,
			Body:        src,
		}
	case !errors.Is(err, http.ErrMissingFile):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid avatar upload"})
	}

	token, user, err := h.auth.Register(c.Request().Context(), in)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("register", failureLabel(err)).Inc()
		return httpError(err)
	}
	metrics.LoginsTotal.WithLabelValues("register", "success").Inc()

	h.setTokenCookie(c, token)
	return c.JSON(http.StatusCreated, authResponse{Success: true, Message: "registration successful", Token: token, User: user})
}

// GoogleLogin signs in with a Google identity, creating the account on first use.
//
// @Summary      Google sign-in
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google identity"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Router       /user/google-login [post]
func (h *UserHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	profile, err := domain.ParseProviderProfile(req.UserInfo)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("google", failureLabel(err)).Inc()
		return httpError(err)
	}

	token, user, err := h.resolver.ResolveGoogle(c.Request().Context(), ports.GoogleLoginInput{
		IDToken:     req.IDToken,
		Profile:     profile,
		FirebaseUID: req.FirebaseUID,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("google", failureLabel(err)).Inc()
		return httpError(err)
	}
	metrics.LoginsTotal.WithLabelValues("google", "success").Inc()

	h.setTokenCookie(c, token)
	return c.JSON(http.StatusOK, authResponse{Success: true, Token: token, User: user})
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorResponse
// @Router       /user/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user})
}

// Logout clears the session cookie. Bearer tokens are stateless and simply
// dropped by the client.
//
// @Summary      Logout
// @Tags         user
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /user/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

// AdminPing confirms admin access.
//
// @Summary      Admin ping
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /user/admin/ping [get]
func (h *UserHandler) AdminPing(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: fmt.Sprintf("hello %s", user.Name)})
}

func (h *UserHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	case errors.Is(err, domain.ErrProviderDataInvalid):
		return "invalid_profile"
	}
	return "error"
}
