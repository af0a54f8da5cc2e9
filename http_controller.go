package identity

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAuthRoutes mounts the sign-in, sign-up, and sign-out routes
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Get(controller.Routes.SignIn,
			controller.SignInShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.SignIn,
			controller.SignInPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignOut, controller.SignOutGet).SetName("sign-out.get")

	app.Get(controller.Routes.SignUp, controller.SignUpShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.SignUp, controller.SignUpPost).
		SetName("sign-up.post")
}

type AuthControllerRoutes struct {
	SignIn  string
	SignOut string
	SignUp  string
}

type AuthControllerViews struct {
	SignIn         string
	SignUp         string
	PartnerPending string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Store        CredentialStore
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Auther       *RouteAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			SignIn:  "/signin",
			SignOut: "/signout",
			SignUp:  "/signup",
		},
		Views: &AuthControllerViews{
			SignIn:         "signin",
			SignUp:         "signup",
			PartnerPending: "partner_pending",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing CredentialStore in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Auther.ErrorHandler
	}

	return c
}

// WithControllerStore sets the credential store
func WithControllerStore(store CredentialStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = store
		return c
	}
}

// WithControllerAuther sets the cookie-transport authenticator
func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func (a *AuthController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignIn, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// SignInRequest payload
type SignInRequest struct {
	Identifier string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r SignInRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r SignInRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the session cookie should outlive
// the default duration
func (r SignInRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) SignInPost(ctx router.Context) error {
	payload := new(SignInRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.SignIn, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("sign-in payload: %s", print.MaybePrettyJSON(payload))
	}

	if err := a.Auther.SignIn(ctx, payload); err != nil {
		switch {
		case IsRateLimited(err):
			errs["authentication"] = "Too many attempts, try again later"
		default:
			errs["authentication"] = "Invalid email or password"
		}
		return ctx.Render(a.Views.SignIn, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, a.homeRedirect(ctx))

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AuthController) SignOutGet(ctx router.Context) error {
	a.Auther.SignOut(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AuthController) SignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignUp, router.ViewContext{
		"errors": map[string]string{},
		"record": SignUpRequest{},
	})
}

// SignUpPayload is the form payload
type SignUpPayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	UserType        string `form:"user_type" json:"user_type"`
	Organization    string `form:"organization" json:"organization"`
	Position        string `form:"position" json:"position"`
	Phone           string `form:"phone_number" json:"phone_number"`
}

// Validate will validate the payload. Organization is required for
// partner sign-ups; the phone number, when present, must parse as a real
// number.
func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(
			&r.UserType,
			validation.Required,
			validation.In(RoleParticipant, RolePartner),
		),
		validation.Field(
			&r.Organization,
			validation.Required.When(r.UserType == RolePartner),
			validation.Length(0, 200),
		),
		validation.Field(&r.Phone, validation.By(validatePhoneNumber)),
	)
}

func (a *AuthController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign-up parse payload: %v", err)
		return ctx.Status(router.StatusBadRequest).Render(a.Views.SignUp, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign-up validate payload: %v", err)
		return ctx.Render(a.Views.SignUp, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(err),
		})
	}

	req := SignUpRequest{
		Email:        payload.Email,
		Password:     payload.Password,
		FullName:     payload.FullName,
		Role:         payload.UserType,
		Organization: payload.Organization,
		Position:     payload.Position,
		Phone:        payload.Phone,
	}

	user, err := a.Store.SignUp(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("sign-up error: %v", err)
		return ctx.Render(a.Views.SignUp, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"registration": err.Error()},
		})
	}

	// Pending partners see the review page, everyone else lands on
	// their dashboard.
	if user.HasRole(RolePartner) && !user.IsApproved() {
		return ctx.Redirect(PartnerPending, router.StatusSeeOther)
	}

	return ctx.Redirect(HomePath(user.Role), router.StatusSeeOther)
}

// homeRedirect computes the post-sign-in landing page from the freshly
// set session cookie, defaulting to the participant dashboard.
func (a *AuthController) homeRedirect(ctx router.Context) string {
	session, err := a.Auther.SessionFromCookie(ctx)
	if err != nil {
		return ParticipantHome
	}

	obj, ok := session.(*SessionObject)
	if !ok {
		return ParticipantHome
	}

	if obj.Role() == RolePartner && obj.Status() != StatusApproved {
		return PartnerPending
	}

	return HomePath(obj.Role())
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func validatePhoneNumber(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

func formatValidationErrors(err error) map[string]string {
	result := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				result[field] = ferr.Error()
			}
		}
		return result
	}

	result["validation"] = err.Error()
	return result
}
