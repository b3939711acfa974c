package accounts

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const sessionLocalsKey = "accounts:session"

// HTTPController exposes the coordinator operations as a JSON API.
type HTTPController struct {
	Debug  bool
	Logger Logger
	Auth   Authenticator
	Tokens TokenService
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

func NewHTTPController(auth Authenticator, tokens TokenService, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		Auth:   auth,
		Tokens: tokens,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in accounts controller...")
	}

	return c
}

// RegisterRoutes mounts the user endpoints under /api/v1/user.
func RegisterRoutes(app fiber.Router, controller *HTTPController) {
	api := app.Group("/api/v1/user")

	api.Post("/login", controller.LoginPost)
	api.Post("/register", controller.RegisterPost)
	api.Get("/activate/:token", controller.ActivateGet)
	api.Get("/:userId", controller.RequireSession, controller.ProfileGet)
	api.Patch("/:userId", controller.RequireSession, controller.ProfilePatch)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *HTTPController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.renderError(ctx, ErrInvalidCredentials)
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, ErrInvalidCredentials)
	}

	result, err := a.Auth.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

func (a *HTTPController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterInput)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.renderError(ctx, ErrInvalidCredentials)
	}

	if a.Debug {
		fmt.Println("======= ACCOUNTS REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(map[string]any{
			"username": payload.Username,
			"email":    payload.Email,
		}))
		fmt.Println("================================")
	}

	result, err := a.Auth.Register(ctx.UserContext(), *payload)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

func (a *HTTPController) ActivateGet(ctx *fiber.Ctx) error {
	token := ctx.Params("token")
	if token == "" {
		return a.renderError(ctx, ErrAccessDenied)
	}

	if err := a.Auth.Activate(ctx.UserContext(), token); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (a *HTTPController) ProfileGet(ctx *fiber.Ctx) error {
	session := a.sessionFromLocals(ctx)
	if session == nil {
		return a.renderError(ctx, ErrAccessDenied)
	}

	profile, err := a.Auth.GetProfile(ctx.UserContext(), session.SubjectID(), ctx.Params("userId"))
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(profile)
}

func (a *HTTPController) ProfilePatch(ctx *fiber.Ctx) error {
	session := a.sessionFromLocals(ctx)
	if session == nil {
		return a.renderError(ctx, ErrAccessDenied)
	}

	payload := new(UpdateInput)
	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("profile update parse payload", "error", err)
		return a.renderError(ctx, ErrInvalidCredentials)
	}

	err := a.Auth.UpdateProfile(ctx.UserContext(), session.SubjectID(), ctx.Params("userId"), *payload)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// RequireSession validates the bearer credential on ownership-gated routes
// and stores the session claims in request locals.
func (a *HTTPController) RequireSession(ctx *fiber.Ctx) error {
	raw := BearerFromHeader(ctx.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return a.renderError(ctx, ErrAccessDenied)
	}

	claims, err := a.Tokens.Validate(raw)
	if err != nil {
		return a.renderError(ctx, ErrInvalidToken)
	}

	if !claims.IsSession() {
		return a.renderError(ctx, ErrInvalidToken)
	}

	ctx.Locals(sessionLocalsKey, claims)
	return ctx.Next()
}

// BearerFromHeader extracts the token from an Authorization header value.
// A bare token without the Bearer scheme is accepted for compatibility
// with clients that send the raw credential.
func BearerFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return header
}

func (a *HTTPController) sessionFromLocals(ctx *fiber.Ctx) *Claims {
	claims, ok := ctx.Locals(sessionLocalsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func (a *HTTPController) renderError(ctx *fiber.Ctx, err error) error {
	code, status := WireError(err)

	if status >= fiber.StatusInternalServerError {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			a.Logger.Error("request failed", "error", rich.Message, "category", rich.Category)
		} else {
			a.Logger.Error("request failed", "error", err)
		}
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": code,
	})
}
