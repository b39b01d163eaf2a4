package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/errors"
	"github.com/histolab/msinet-go/internal/security"
)

// GetLogin renders the login form.
func (h *Handlers) GetLogin(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", map[string]interface{}{
		"Title": "Login",
	})
}

// PostLogin validates credentials and establishes a session identity.
// On email-not-found or password mismatch no session is established and the
// form is re-rendered with an inline error.
func (h *Handlers) PostLogin(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := h.DS.GetUserByEmail(email)
	switch {
	case errors.Is(err, datastore.ErrNotFound):
		h.Sessions.Flash(c, "error", "Email does not exist.")
		return h.render(c, http.StatusOK, "login", map[string]interface{}{
			"Title": "Login",
		})
	case err != nil:
		return err
	}

	if !security.CheckPassword(password, user.Password) {
		h.Sessions.Flash(c, "error", "Incorrect password, try again.")
		return h.render(c, http.StatusOK, "login", map[string]interface{}{
			"Title": "Login",
		})
	}

	if err := h.Sessions.LoginUser(c, user.ID); err != nil {
		return err
	}
	h.Sessions.Flash(c, "success", "Logged in successfully!")
	return c.Redirect(http.StatusFound, "/")
}

// Logout destroys the current session and returns the user to the login page.
func (h *Handlers) Logout(c echo.Context) error {
	if err := h.Sessions.LogoutUser(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/login")
}

// GetSignUp renders the sign-up form.
func (h *Handlers) GetSignUp(c echo.Context) error {
	return h.render(c, http.StatusOK, "sign_up", map[string]interface{}{
		"Title": "Sign Up",
	})
}

// PostSignUp validates the registration form with the ordered check chain,
// creates the account and establishes a session. Only the first failing
// check is reported.
func (h *Handlers) PostSignUp(c echo.Context) error {
	email := c.FormValue("email")
	firstName := c.FormValue("firstName")
	password1 := c.FormValue("password1")
	password2 := c.FormValue("password2")

	emailTaken, err := h.DS.UserExists(email)
	if err != nil {
		return err
	}

	checks := security.SignUpChecks(emailTaken, email, firstName, password1, password2)
	if message, ok := security.FirstFailure(checks); !ok {
		h.Sessions.Flash(c, "error", message)
		return h.render(c, http.StatusOK, "sign_up", map[string]interface{}{
			"Title": "Sign Up",
		})
	}

	hash, err := security.HashPassword(password1)
	if err != nil {
		return err
	}

	user := &datastore.User{
		Email:     email,
		FirstName: firstName,
		Password:  hash,
	}
	if err := h.DS.CreateUser(user); err != nil {
		return err
	}

	if err := h.Sessions.LoginUser(c, user.ID); err != nil {
		return err
	}
	h.Sessions.Flash(c, "success", "Account created!")
	return c.Redirect(http.StatusFound, "/")
}
