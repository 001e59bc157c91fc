package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

type AuthControllerRoutes struct {
	Register       string
	Login          string
	Refresh        string
	Logout         string
	ChangePassword string
}

// AuthController exposes the credential operations over fiber. The refresh
// token travels only in an HTTP-only cookie; the access token only in the
// JSON body, to be held in memory by the client.
type AuthController struct {
	Auther *Auther
	Config Config
	Logger Logger
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(auther *Auther, cfg Config, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Auther: auther,
		Config: cfg,
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/auth/register",
			Login:          "/auth/login",
			Refresh:        "/auth/refresh",
			Logout:         "/auth/logout",
			ChangePassword: "/auth/password",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterAuthRoutes mounts the controller on a fiber router.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Post(controller.Routes.ChangePassword, controller.ChangePasswordPost)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 60)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := req.Validate(); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest))
	}

	result, err := a.Auther.Register(c.UserContext(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return a.renderError(c, err)
	}

	a.setRefreshCookie(c, result.RefreshToken)
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := req.Validate(); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	result, err := a.Auther.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	a.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(result)
}

// RefreshPost redeems the refresh cookie for a new access token. The cookie
// is re-set with its remaining lifetime untouched: redemption does not
// rotate the refresh token.
func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	token := c.Cookies(a.Config.GetCookieName())
	if token == "" {
		return a.renderError(c, ErrInvalidRefreshToken)
	}

	result, err := a.Auther.Refresh(c.UserContext(), token)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(result)
}

func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	token := c.Cookies(a.Config.GetCookieName())
	if token != "" {
		if err := a.Auther.Logout(c.UserContext(), token); err != nil {
			return a.renderError(c, err)
		}
	}

	a.clearRefreshCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (a *AuthController) ChangePasswordPost(c *fiber.Ctx) error {
	accountID, err := RequireAuthenticated(c.UserContext())
	if err != nil {
		return a.renderError(c, err)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse password payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := req.Validate(); err != nil {
		return a.renderError(c, errors.Wrap(err, errors.CategoryValidation, "invalid password payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := a.Auther.ChangePassword(c.UserContext(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (a *AuthController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    token,
		Expires:  time.Now().Add(a.Config.GetRefreshTokenTTL()),
		HTTPOnly: true,
		Secure:   a.Config.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (a *AuthController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.Config.GetCookieSecure(),
		SameSite: "Lax",
	})
}

// renderError emits only the stable message and text code; internal causes
// and identifiers stay in the server log.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info("auth controller error on %s: %s (%s)",
		c.OriginalURL(), richErr.Message, richErr.TextCode)

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
